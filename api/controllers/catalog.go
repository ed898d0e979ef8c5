package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storebot/storefront-backend/api/responses"
	"github.com/storebot/storefront-backend/api/validators"
	catalogsvc "github.com/storebot/storefront-backend/internal/catalog"
	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type locationResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

type manufacturerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productResponse struct {
	ID             string          `json:"id"`
	ManufacturerID string          `json:"manufacturer_id"`
	CategoryID     *string         `json:"category_id,omitempty"`
	SKU            *string         `json:"sku,omitempty"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Available      *int            `json:"available,omitempty"`
}

func newLocationResponse(location *models.Location) locationResponse {
	return locationResponse{
		ID:      location.ID.String(),
		Name:    location.Name,
		Address: location.Address,
	}
}

func newProductResponse(product *models.Product, available *int) productResponse {
	out := productResponse{
		ID:             product.ID.String(),
		ManufacturerID: product.ManufacturerID.String(),
		SKU:            product.SKU,
		Name:           product.Name,
		Description:    product.Description,
		Price:          product.Price,
		Available:      available,
	}
	if product.CategoryID != nil {
		id := product.CategoryID.String()
		out.CategoryID = &id
	}
	return out
}

// CatalogLocations lists locations holding stock.
func CatalogLocations(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := svc.LocationsWithStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]locationResponse, 0, len(locations))
		for i := range locations {
			out = append(out, newLocationResponse(&locations[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// CatalogManufacturers lists manufacturers stocked at one location.
func CatalogManufacturers(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locationID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manufacturers, err := svc.ManufacturersByLocation(r.Context(), locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]manufacturerResponse, 0, len(manufacturers))
		for _, m := range manufacturers {
			out = append(out, manufacturerResponse{ID: m.ID.String(), Name: m.Name})
		}
		responses.WriteSuccess(w, out)
	}
}

// CatalogProducts lists a manufacturer's in-stock products at a location.
func CatalogProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manufacturerID, err := validators.ParseQueryUUID(r, "manufacturer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if manufacturerID == uuid.Nil || locationID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "manufacturer_id and location_id are required"))
			return
		}

		products, err := svc.ProductsByManufacturer(r.Context(), manufacturerID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]productResponse, 0, len(products))
		for i := range products {
			available := products[i].Available
			out = append(out, newProductResponse(&products[i].Product, &available))
		}
		responses.WriteSuccess(w, out)
	}
}

// CatalogProductDetails returns one product with per-location availability.
func CatalogProductDetails(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, stockLines, err := svc.ProductDetails(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock := make([]map[string]any, 0, len(stockLines))
		for _, line := range stockLines {
			stock = append(stock, map[string]any{
				"location": newLocationResponse(&line.Location),
				"quantity": line.Quantity,
			})
		}
		responses.WriteSuccess(w, map[string]any{
			"product": newProductResponse(product, nil),
			"stock":   stock,
		})
	}
}
