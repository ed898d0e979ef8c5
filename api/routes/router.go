package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storebot/storefront-backend/api/controllers"
	"github.com/storebot/storefront-backend/api/middleware"
	"github.com/storebot/storefront-backend/internal/admingw"
	cartsvc "github.com/storebot/storefront-backend/internal/cart"
	catalogsvc "github.com/storebot/storefront-backend/internal/catalog"
	checkoutsvc "github.com/storebot/storefront-backend/internal/checkout"
	ordersvc "github.com/storebot/storefront-backend/internal/orders"
	usersvc "github.com/storebot/storefront-backend/internal/users"
	"github.com/storebot/storefront-backend/pkg/config"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// RouterParams carries everything the router wires together.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       dbPinger
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Catalog  catalogsvc.Service
	Users    usersvc.Service
	Gateway  *admingw.Gateway
	Stats    *admingw.StatsReader
}

// NewRouter builds the HTTP surface: public catalog reads, per-user cart and
// order routes behind X-User-Id, and admin routes behind the allowlist.
func NewRouter(params RouterParams) http.Handler {
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.Healthz(params.DB, logg))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/locations", controllers.CatalogLocations(params.Catalog, logg))
			r.Get("/locations/{id}/manufacturers", controllers.CatalogManufacturers(params.Catalog, logg))
			r.Get("/products", controllers.CatalogProducts(params.Catalog, logg))
			r.Get("/products/{id}", controllers.CatalogProductDetails(params.Catalog, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))

			r.Post("/users/sync", controllers.UserSync(params.Users, logg))

			r.Get("/cart", controllers.CartGet(params.Cart, logg))
			r.Put("/cart/items", controllers.CartUpsert(params.Cart, logg))
			r.Delete("/cart/items", controllers.CartRemoveItem(params.Cart, logg))
			r.Delete("/cart", controllers.CartClear(params.Cart, logg))

			r.Post("/orders", controllers.OrderCreate(params.Checkout, logg))
			r.Get("/orders", controllers.OrderList(params.Orders, logg))
			r.Get("/orders/{id}", controllers.OrderGet(params.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg, &params.Config.Admin))

			r.Get("/orders", controllers.AdminOrderList(params.Orders, logg))
			r.Post("/orders/{id}/approve", controllers.AdminOrderApprove(params.Gateway, logg))
			r.Post("/orders/{id}/reject", controllers.AdminOrderReject(params.Gateway, logg))
			r.Post("/orders/{id}/cancel", controllers.AdminOrderCancel(params.Gateway, logg))
			r.Post("/orders/{id}/status", controllers.AdminOrderChangeStatus(params.Gateway, logg))

			r.Put("/stock", controllers.AdminStockSet(params.Catalog, logg))
			r.Post("/stock/adjust", controllers.AdminStockAdjust(params.Catalog, logg))

			r.Post("/catalog/locations", controllers.AdminLocationCreate(params.Catalog, logg))
			r.Put("/catalog/locations/{id}", controllers.AdminLocationUpdate(params.Catalog, logg))
			r.Delete("/catalog/locations/{id}", controllers.AdminLocationDelete(params.Catalog, logg))
			r.Post("/catalog/manufacturers", controllers.AdminManufacturerCreate(params.Catalog, logg))
			r.Put("/catalog/manufacturers/{id}", controllers.AdminManufacturerUpdate(params.Catalog, logg))
			r.Delete("/catalog/manufacturers/{id}", controllers.AdminManufacturerDelete(params.Catalog, logg))
			r.Post("/catalog/categories", controllers.AdminCategoryCreate(params.Catalog, logg))
			r.Put("/catalog/categories/{id}", controllers.AdminCategoryUpdate(params.Catalog, logg))
			r.Delete("/catalog/categories/{id}", controllers.AdminCategoryDelete(params.Catalog, logg))
			r.Post("/catalog/products", controllers.AdminProductCreate(params.Catalog, logg))
			r.Put("/catalog/products/{id}", controllers.AdminProductUpdate(params.Catalog, logg))
			r.Delete("/catalog/products/{id}", controllers.AdminProductDelete(params.Catalog, logg))

			r.Get("/users", controllers.AdminUserList(params.Users, logg))
			r.Get("/users/{id}", controllers.AdminUserGet(params.Users, logg))
			r.Post("/users/{id}/block", controllers.AdminUserBlock(params.Users, logg))
			r.Post("/users/{id}/unblock", controllers.AdminUserUnblock(params.Users, logg))

			r.Get("/stats", controllers.AdminStats(params.Stats, logg))
		})
	})

	return r
}
