package admingw

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storebot/storefront-backend/internal/orders"
	"github.com/storebot/storefront-backend/pkg/db/models"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

// ResultCode is the stable vocabulary the calling UI localizes from. It never
// leaks internal enum or error names.
type ResultCode string

const (
	ResultOK                ResultCode = "OK"
	ResultForbidden         ResultCode = "FORBIDDEN"
	ResultNotFound          ResultCode = "NOT_FOUND"
	ResultAlreadyProcessed  ResultCode = "ALREADY_PROCESSED"
	ResultInvalidTransition ResultCode = "INVALID_TRANSITION"
	ResultInvalidRequest    ResultCode = "INVALID_REQUEST"
	ResultError             ResultCode = "ERROR"
)

// Action names an admin-initiated order transition.
type Action string

const (
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionCancel       Action = "cancel"
	ActionChangeStatus Action = "change_status"
)

// Payload carries the per-action arguments.
type Payload struct {
	Reason    string
	NewStatus enums.OrderStatus
}

// Result reports the outcome of one dispatched action.
type Result struct {
	Code    ResultCode
	OrderID uuid.UUID
	Order   *models.Order
}

type allowlist interface {
	IsAllowed(adminID int64) bool
}

type orderActions interface {
	Approve(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error)
}

var _ orderActions = (orders.Service)(nil)

// Gateway authorizes admin callers against the configured allowlist and
// dispatches their actions into the order lifecycle, folding outcomes into
// stable result codes.
type Gateway struct {
	orders orderActions
	admins allowlist
	log    *logger.Logger
}

// NewGateway builds the gateway over the order service and the allowlist.
func NewGateway(orderSvc orderActions, admins allowlist, log *logger.Logger) (*Gateway, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin allowlist required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Gateway{orders: orderSvc, admins: admins, log: log}, nil
}

// Dispatch runs one admin action against an order. The returned result code
// is stable; unexpected failures are logged and folded into ResultError.
func (g *Gateway) Dispatch(ctx context.Context, adminID int64, action Action, orderID uuid.UUID, payload Payload) Result {
	if !g.admins.IsAllowed(adminID) {
		return Result{Code: ResultForbidden, OrderID: orderID}
	}

	ctx = g.log.WithAdminID(ctx, adminID)
	ctx = g.log.WithOrderID(ctx, orderID.String())

	var (
		order *models.Order
		err   error
	)
	switch action {
	case ActionApprove:
		order, err = g.orders.Approve(ctx, orderID)
	case ActionReject:
		order, err = g.orders.Reject(ctx, orderID, payload.Reason)
	case ActionCancel:
		order, err = g.orders.Cancel(ctx, orderID, payload.Reason)
	case ActionChangeStatus:
		order, err = g.orders.ChangeStatus(ctx, orderID, payload.NewStatus)
	default:
		return Result{Code: ResultInvalidRequest, OrderID: orderID}
	}
	if err != nil {
		code := g.resultFromError(ctx, action, err)
		return Result{Code: code, OrderID: orderID}
	}
	return Result{Code: ResultOK, OrderID: orderID, Order: order}
}

// Approve dispatches an approve action.
func (g *Gateway) Approve(ctx context.Context, adminID int64, orderID uuid.UUID) Result {
	return g.Dispatch(ctx, adminID, ActionApprove, orderID, Payload{})
}

// Reject dispatches a reject action with a reason.
func (g *Gateway) Reject(ctx context.Context, adminID int64, orderID uuid.UUID, reason string) Result {
	return g.Dispatch(ctx, adminID, ActionReject, orderID, Payload{Reason: reason})
}

// Cancel dispatches a cancel action with a reason.
func (g *Gateway) Cancel(ctx context.Context, adminID int64, orderID uuid.UUID, reason string) Result {
	return g.Dispatch(ctx, adminID, ActionCancel, orderID, Payload{Reason: reason})
}

// ChangeStatus dispatches a forward-chain status change.
func (g *Gateway) ChangeStatus(ctx context.Context, adminID int64, orderID uuid.UUID, to enums.OrderStatus) Result {
	return g.Dispatch(ctx, adminID, ActionChangeStatus, orderID, Payload{NewStatus: to})
}

func (g *Gateway) resultFromError(ctx context.Context, action Action, err error) ResultCode {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return ResultNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeAlreadyProcessed):
		return ResultAlreadyProcessed
	case pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition):
		return ResultInvalidTransition
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return ResultInvalidRequest
	default:
		g.log.Error(g.log.WithField(ctx, "action", string(action)), "admin action failed", err)
		return ResultError
	}
}
