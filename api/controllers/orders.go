package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/storebot/storefront-backend/api/middleware"
	"github.com/storebot/storefront-backend/api/responses"
	"github.com/storebot/storefront-backend/api/validators"
	checkoutsvc "github.com/storebot/storefront-backend/internal/checkout"
	ordersvc "github.com/storebot/storefront-backend/internal/orders"
	"github.com/storebot/storefront-backend/pkg/db/models"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/pagination"
)

type createOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card online"`
}

type orderItemResponse struct {
	ProductID    string          `json:"product_id"`
	LocationID   string          `json:"location_id"`
	ProductName  string          `json:"product_name"`
	LocationName string          `json:"location_name"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	UserID        int64               `json:"user_id"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	AdminNotes    *string             `json:"admin_notes,omitempty"`
	Items         []orderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:    item.ProductID.String(),
			LocationID:   item.LocationID.String(),
			ProductName:  item.ProductName,
			LocationName: item.LocationName,
			Quantity:     item.Quantity,
			PriceAtOrder: item.PriceAtOrder,
		})
	}
	return orderResponse{
		ID:            order.ID.String(),
		UserID:        order.UserID,
		Status:        order.Status.String(),
		PaymentMethod: order.PaymentMethod.String(),
		TotalAmount:   order.TotalAmount,
		AdminNotes:    order.AdminNotes,
		Items:         items,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// OrderCreate converts the caller's cart into an order.
func OrderCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.CreateOrderFromCart(r.Context(), userID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderList returns the caller's most recent orders.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListForUser(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(orders))
		for i := range orders {
			out = append(out, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderGet returns one of the caller's orders. Another user's order reads as
// not found rather than forbidden, so order ids cannot be probed.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetDetails(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.UserID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
