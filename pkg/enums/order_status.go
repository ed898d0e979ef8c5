package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPendingAdminApproval OrderStatus = "pending_admin_approval"
	OrderStatusApproved             OrderStatus = "approved"
	OrderStatusProcessing           OrderStatus = "processing"
	OrderStatusReadyForPickup       OrderStatus = "ready_for_pickup"
	OrderStatusShipped              OrderStatus = "shipped"
	OrderStatusCompleted            OrderStatus = "completed"
	OrderStatusCancelled            OrderStatus = "cancelled"
	OrderStatusRejected             OrderStatus = "rejected"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingAdminApproval,
	OrderStatusApproved,
	OrderStatusProcessing,
	OrderStatusReadyForPickup,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRejected,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
