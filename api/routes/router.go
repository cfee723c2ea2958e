package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-backend/api/controllers"
	"github.com/atelierhq/atelier-backend/api/middleware"
	checkoutsvc "github.com/atelierhq/atelier-backend/internal/checkout"
	"github.com/atelierhq/atelier-backend/internal/orders"
	"github.com/atelierhq/atelier-backend/internal/promo"
	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/db"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	promoEvaluator *promo.Evaluator,
	ordersRepo orders.Repository,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1", func(r chi.Router) {
			r.Post("/checkout/orders", controllers.CreateOrder(checkoutService, logg))
			r.Post("/promo/validate", controllers.ValidatePromo(promoEvaluator, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(ordersRepo, logg))
				r.Get("/{orderId}", controllers.OrderDetail(ordersRepo, logg))
			})
		})
	})

	return r
}
