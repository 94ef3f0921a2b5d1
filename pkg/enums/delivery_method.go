package enums

import "fmt"

// DeliveryMethod records how the order should reach the customer.
type DeliveryMethod string

const (
	DeliveryMethodCourier DeliveryMethod = "courier"
	DeliveryMethodPickup  DeliveryMethod = "pickup"
	DeliveryMethodPost    DeliveryMethod = "post"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodCourier,
	DeliveryMethodPickup,
	DeliveryMethodPost,
}

// String implements fmt.Stringer.
func (m DeliveryMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (m DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
