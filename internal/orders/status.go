package orders

import "github.com/storebot/storefront-backend/pkg/enums"

// forwardNext is the single-step fulfillment chain driven by changeStatus.
// Rejection and cancellation are separate verbs with their own preconditions
// and a compensating stock restore; they never travel through this table.
var forwardNext = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusApproved:       enums.OrderStatusProcessing,
	enums.OrderStatusProcessing:     enums.OrderStatusReadyForPickup,
	enums.OrderStatusReadyForPickup: enums.OrderStatusShipped,
	enums.OrderStatusShipped:        enums.OrderStatusCompleted,
}

// CanAdvance reports whether changeStatus may move from one status to the
// next. Only single forward steps along the fulfillment chain are legal;
// skipping, reversing, and entering terminal states sideways are not.
func CanAdvance(from, to enums.OrderStatus) bool {
	next, ok := forwardNext[from]
	return ok && next == to
}

// CanReject reports whether reject is legal from the given status.
func CanReject(from enums.OrderStatus) bool {
	return from == enums.OrderStatusPendingAdminApproval
}

// CanCancel reports whether cancel is legal from the given status. Pending
// orders are rejected, not cancelled, and terminal orders stay put.
func CanCancel(from enums.OrderStatus) bool {
	switch from {
	case enums.OrderStatusApproved,
		enums.OrderStatusProcessing,
		enums.OrderStatusReadyForPickup,
		enums.OrderStatusShipped:
		return true
	default:
		return false
	}
}
