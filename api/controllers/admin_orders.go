package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storebot/storefront-backend/api/middleware"
	"github.com/storebot/storefront-backend/api/responses"
	"github.com/storebot/storefront-backend/api/validators"
	"github.com/storebot/storefront-backend/internal/admingw"
	ordersvc "github.com/storebot/storefront-backend/internal/orders"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/pagination"
)

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type gatewayResultResponse struct {
	Code    string         `json:"code"`
	OrderID string         `json:"order_id"`
	Order   *orderResponse `json:"order,omitempty"`
}

var gatewayStatus = map[admingw.ResultCode]int{
	admingw.ResultOK:                http.StatusOK,
	admingw.ResultForbidden:         http.StatusForbidden,
	admingw.ResultNotFound:          http.StatusNotFound,
	admingw.ResultAlreadyProcessed:  http.StatusConflict,
	admingw.ResultInvalidTransition: http.StatusUnprocessableEntity,
	admingw.ResultInvalidRequest:    http.StatusBadRequest,
	admingw.ResultError:             http.StatusInternalServerError,
}

func writeGatewayResult(w http.ResponseWriter, result admingw.Result) {
	status, ok := gatewayStatus[result.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	payload := gatewayResultResponse{
		Code:    string(result.Code),
		OrderID: result.OrderID.String(),
	}
	if result.Order != nil {
		order := newOrderResponse(result.Order)
		payload.Order = &order
	}
	responses.WriteSuccessStatus(w, status, payload)
}

// AdminOrderList returns a filtered, paginated order listing.
func AdminOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters ordersvc.AdminFilters
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if userID, err := validators.ParseQueryInt(r, "user_id", 0, 0, int(^uint(0)>>1)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if userID > 0 {
			id := int64(userID)
			filters.UserID = &id
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, int(^uint(0)>>1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForAdmin(r.Context(), filters, pagination.Params{Limit: limit, Offset: offset})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newOrderResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"items": items,
			"total": page.Total,
		})
	}
}

// AdminOrderApprove approves a pending order.
func AdminOrderApprove(gw *admingw.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, orderID, err := adminAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeGatewayResult(w, gw.Approve(r.Context(), adminID, orderID))
	}
}

// AdminOrderReject rejects a pending order with a reason.
func AdminOrderReject(gw *admingw.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, orderID, err := adminAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeGatewayResult(w, gw.Reject(r.Context(), adminID, orderID, payload.Reason))
	}
}

// AdminOrderCancel cancels an in-flight order with a reason.
func AdminOrderCancel(gw *admingw.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, orderID, err := adminAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeGatewayResult(w, gw.Cancel(r.Context(), adminID, orderID, payload.Reason))
	}
}

// AdminOrderChangeStatus advances an order along the fulfillment chain.
func AdminOrderChangeStatus(gw *admingw.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, orderID, err := adminAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload changeStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		writeGatewayResult(w, gw.ChangeStatus(r.Context(), adminID, orderID, status))
	}
}

func adminAction(r *http.Request) (int64, uuid.UUID, error) {
	id, ok := middleware.AdminID(r.Context())
	if !ok {
		return 0, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	orderID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		return 0, uuid.Nil, err
	}
	return id, orderID, nil
}
