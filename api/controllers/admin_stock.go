package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storebot/storefront-backend/api/responses"
	"github.com/storebot/storefront-backend/api/validators"
	catalogsvc "github.com/storebot/storefront-backend/internal/catalog"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type setStockRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"min=0"`
}

type adjustStockRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Delta      int       `json:"delta" validate:"required"`
}

// AdminStockSet overrides a stock line to an exact quantity.
func AdminStockSet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetStock(r.Context(), payload.ProductID, payload.LocationID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id":  payload.ProductID.String(),
			"location_id": payload.LocationID.String(),
			"quantity":    payload.Quantity,
		})
	}
}

// AdminStockAdjust applies a relative delta to a stock line.
func AdminStockAdjust(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AdjustStock(r.Context(), payload.ProductID, payload.LocationID, payload.Delta); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "adjusted"})
	}
}
