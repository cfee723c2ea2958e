package enums

import "fmt"

// ItemKind classifies what a cart line item refers to.
type ItemKind string

const (
	ItemKindProduct  ItemKind = "product"
	ItemKindCourse   ItemKind = "course"
	ItemKindWorkshop ItemKind = "workshop"
)

var validItemKinds = []ItemKind{
	ItemKindProduct,
	ItemKindCourse,
	ItemKindWorkshop,
}

// String implements fmt.Stringer.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemKind.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsPhysical reports whether items of this kind ship physically. Courses and
// workshops are delivered digitally / in person and never carry shipping cost.
func (k ItemKind) IsPhysical() bool {
	return k == ItemKindProduct
}

// ParseItemKind converts raw input into an ItemKind.
func ParseItemKind(value string) (ItemKind, error) {
	for _, candidate := range validItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
