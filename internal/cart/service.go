package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

type cartRepository interface {
	Upsert(ctx context.Context, line *models.CartLine) error
	Delete(ctx context.Context, userID int64, productID, locationID uuid.UUID) error
	Clear(ctx context.Context, userID int64) error
	List(ctx context.Context, userID int64) ([]models.CartLine, error)
}

type catalogReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

type stockReader interface {
	Get(ctx context.Context, productID, locationID uuid.UUID) (int, error)
}

type userGate interface {
	IsBlocked(ctx context.Context, userID int64) (bool, error)
}

// UpsertInput sets one cart line to an exact quantity. Zero removes the line.
type UpsertInput struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Quantity   int
}

// UpsertResult reports the stored quantity and a non-binding availability
// hint. LowStock never blocks the write; only conversion enforces stock.
type UpsertResult struct {
	Quantity  int
	Available int
	LowStock  bool
}

// Item is one rendered cart line with live catalog data.
type Item struct {
	ProductID    uuid.UUID       `json:"product_id"`
	LocationID   uuid.UUID       `json:"location_id"`
	ProductName  string          `json:"product_name"`
	LocationName string          `json:"location_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	Available    int             `json:"available"`
}

// View is the whole cart priced at current catalog values.
type View struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Service exposes cart staging operations.
type Service interface {
	Upsert(ctx context.Context, userID int64, input UpsertInput) (*UpsertResult, error)
	View(ctx context.Context, userID int64) (*View, error)
	Remove(ctx context.Context, userID int64, productID, locationID uuid.UUID) error
	Clear(ctx context.Context, userID int64) error
}

type service struct {
	repo    cartRepository
	catalog catalogReader
	stock   stockReader
	users   userGate
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo cartRepository, catalog catalogReader, stock stockReader, users userGate) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user gate required")
	}
	return &service{repo: repo, catalog: catalog, stock: stock, users: users}, nil
}

func (s *service) Upsert(ctx context.Context, userID int64, input UpsertInput) (*UpsertResult, error) {
	if err := s.ensureNotBlocked(ctx, userID); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.Quantity == 0 {
		if err := s.repo.Delete(ctx, userID, input.ProductID, input.LocationID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete cart line")
		}
		return &UpsertResult{Quantity: 0}, nil
	}

	if _, err := s.catalog.FindProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.FindLocation(ctx, input.LocationID); err != nil {
		return nil, err
	}

	line := models.CartLine{
		UserID:     userID,
		ProductID:  input.ProductID,
		LocationID: input.LocationID,
		Quantity:   input.Quantity,
	}
	if err := s.repo.Upsert(ctx, &line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "upsert cart line")
	}

	available, err := s.stock.Get(ctx, input.ProductID, input.LocationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read stock for cart hint")
	}
	return &UpsertResult{
		Quantity:  input.Quantity,
		Available: available,
		LowStock:  available < input.Quantity,
	}, nil
}

// View prices the cart at current catalog values. Lines whose product or
// location has been deleted since they were added are dropped from the cart.
func (s *service) View(ctx context.Context, userID int64) (*View, error) {
	lines, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list cart lines")
	}

	view := &View{Items: []Item{}, Total: decimal.Zero}
	for _, line := range lines {
		product, err := s.catalog.FindProduct(ctx, line.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				if err := s.repo.Delete(ctx, userID, line.ProductID, line.LocationID); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "prune stale cart line")
				}
				continue
			}
			return nil, err
		}
		location, err := s.catalog.FindLocation(ctx, line.LocationID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				if err := s.repo.Delete(ctx, userID, line.ProductID, line.LocationID); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "prune stale cart line")
				}
				continue
			}
			return nil, err
		}
		available, err := s.stock.Get(ctx, line.ProductID, line.LocationID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read stock for cart view")
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, Item{
			ProductID:    line.ProductID,
			LocationID:   line.LocationID,
			ProductName:  product.Name,
			LocationName: location.Name,
			UnitPrice:    product.Price,
			Quantity:     line.Quantity,
			LineTotal:    lineTotal,
			Available:    available,
		})
		view.Total = view.Total.Add(lineTotal)
	}
	return view, nil
}

func (s *service) Remove(ctx context.Context, userID int64, productID, locationID uuid.UUID) error {
	if err := s.ensureNotBlocked(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, productID, locationID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	if err := s.ensureNotBlocked(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear cart")
	}
	return nil
}

func (s *service) ensureNotBlocked(ctx context.Context, userID int64) error {
	blocked, err := s.users.IsBlocked(ctx, userID)
	if err != nil {
		return err
	}
	if blocked {
		return pkgerrors.New(pkgerrors.CodeForbidden, "user is blocked")
	}
	return nil
}
