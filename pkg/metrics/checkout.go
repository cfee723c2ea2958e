package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks order creation outcomes and pricing fallbacks.
type CheckoutMetrics struct {
	ordersCreated    *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	catalogMiss      *prometheus.CounterVec
	shippingFallback prometheus.Counter
	promoRejected    *prometheus.CounterVec
	gatewayFailure   prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders created, labeled by final status.",
	}, []string{"status"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "End-to-end order creation latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	catalogMiss := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_catalog_miss_total",
		Help: "Cart lines priced from the client payload after a failed catalog lookup.",
	}, []string{"item_type"})
	shippingFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_shipping_fallback_total",
		Help: "Seller groups priced with the platform fallback rate after a resolution failure.",
	})
	promoRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_promo_rejected_total",
		Help: "Promo code rejections, labeled by reason.",
	}, []string{"reason"})
	gatewayFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_gateway_failure_total",
		Help: "Payment gateway order creation failures.",
	})
	reg.MustRegister(ordersCreated, checkoutDuration, catalogMiss, shippingFallback, promoRejected, gatewayFailure)
	return &CheckoutMetrics{
		ordersCreated:    ordersCreated,
		checkoutDuration: checkoutDuration,
		catalogMiss:      catalogMiss,
		shippingFallback: shippingFallback,
		promoRejected:    promoRejected,
		gatewayFailure:   gatewayFailure,
	}
}

// IncCatalogMiss counts a cart line that kept its client values after a
// failed lookup.
func (c *CheckoutMetrics) IncCatalogMiss(itemType string) {
	if c == nil || c.catalogMiss == nil {
		return
	}
	c.catalogMiss.WithLabelValues(normalizeLabel(itemType)).Inc()
}

// IncOrderCreated increments the created counter for the given status.
func (c *CheckoutMetrics) IncOrderCreated(status string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveCheckoutDuration records one checkout latency sample.
func (c *CheckoutMetrics) ObserveCheckoutDuration(duration time.Duration) {
	if c == nil || c.checkoutDuration == nil {
		return
	}
	c.checkoutDuration.Observe(duration.Seconds())
}

// IncShippingFallback counts a seller group that fell back to platform rates.
func (c *CheckoutMetrics) IncShippingFallback() {
	if c == nil || c.shippingFallback == nil {
		return
	}
	c.shippingFallback.Inc()
}

// IncPromoRejected counts a rejected promo code by reason.
func (c *CheckoutMetrics) IncPromoRejected(reason string) {
	if c == nil || c.promoRejected == nil {
		return
	}
	c.promoRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncGatewayFailure counts a failed gateway order creation.
func (c *CheckoutMetrics) IncGatewayFailure() {
	if c == nil || c.gatewayFailure == nil {
		return
	}
	c.gatewayFailure.Inc()
}
