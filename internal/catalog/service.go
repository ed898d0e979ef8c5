package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storebot/storefront-backend/internal/stock"
	"github.com/storebot/storefront-backend/pkg/db"
	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

type stockAdmin interface {
	SetAbsolute(ctx context.Context, productID, locationID uuid.UUID, quantity int) error
	Adjust(ctx context.Context, productID, locationID uuid.UUID, delta int) error
}

var _ stockAdmin = (*stock.Repository)(nil)

// ProductInput carries the admin payload for creating or updating a product.
type ProductInput struct {
	ManufacturerID uuid.UUID
	CategoryID     *uuid.UUID
	SKU            *string
	Name           string
	Description    *string
	Price          decimal.Decimal
}

// Service exposes catalog browsing plus the admin writes that maintain it.
type Service interface {
	// browse
	LocationsWithStock(ctx context.Context) ([]models.Location, error)
	ManufacturersByLocation(ctx context.Context, locationID uuid.UUID) ([]models.Manufacturer, error)
	ProductsByManufacturer(ctx context.Context, manufacturerID, locationID uuid.UUID) ([]ProductAvailability, error)
	ProductDetails(ctx context.Context, productID uuid.UUID) (*models.Product, []LocationStock, error)

	// admin writes
	CreateLocation(ctx context.Context, name string, address *string) (*models.Location, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, name string, address *string) (*models.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error
	CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error)
	UpdateManufacturer(ctx context.Context, id uuid.UUID, name string) (*models.Manufacturer, error)
	DeleteManufacturer(ctx context.Context, id uuid.UUID) error
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// stock admin
	SetStock(ctx context.Context, productID, locationID uuid.UUID, quantity int) error
	AdjustStock(ctx context.Context, productID, locationID uuid.UUID, delta int) error
}

type service struct {
	repo  *Repository
	stock stockAdmin
}

// NewService builds a catalog service over the provided repositories.
func NewService(repo *Repository, stockRepo stockAdmin) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo, stock: stockRepo}, nil
}

func (s *service) LocationsWithStock(ctx context.Context) ([]models.Location, error) {
	return s.repo.ListLocationsWithStock(ctx)
}

func (s *service) ManufacturersByLocation(ctx context.Context, locationID uuid.UUID) ([]models.Manufacturer, error) {
	if _, err := s.repo.FindLocation(ctx, locationID); err != nil {
		return nil, err
	}
	return s.repo.ListManufacturersByLocation(ctx, locationID)
}

func (s *service) ProductsByManufacturer(ctx context.Context, manufacturerID, locationID uuid.UUID) ([]ProductAvailability, error) {
	if _, err := s.repo.FindManufacturer(ctx, manufacturerID); err != nil {
		return nil, err
	}
	return s.repo.ListProductsByManufacturer(ctx, manufacturerID, locationID)
}

func (s *service) ProductDetails(ctx context.Context, productID uuid.UUID) (*models.Product, []LocationStock, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	stockLines, err := s.repo.ListStockByProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	return product, stockLines, nil
}

func (s *service) CreateLocation(ctx context.Context, name string, address *string) (*models.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}
	location := models.Location{Name: name, Address: address}
	if err := s.repo.Save(ctx, &location); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "location name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create location")
	}
	return &location, nil
}

func (s *service) UpdateLocation(ctx context.Context, id uuid.UUID, name string, address *string) (*models.Location, error) {
	location, err := s.repo.FindLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}
	location.Name = name
	location.Address = address
	if err := s.repo.Save(ctx, location); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "location name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update location")
	}
	return location, nil
}

func (s *service) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	location, err := s.repo.FindLocation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, location); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "location is still referenced by orders")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete location")
	}
	return nil
}

func (s *service) CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manufacturer name required")
	}
	manufacturer := models.Manufacturer{Name: name}
	if err := s.repo.Save(ctx, &manufacturer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "manufacturer name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create manufacturer")
	}
	return &manufacturer, nil
}

func (s *service) UpdateManufacturer(ctx context.Context, id uuid.UUID, name string) (*models.Manufacturer, error) {
	manufacturer, err := s.repo.FindManufacturer(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manufacturer name required")
	}
	manufacturer.Name = name
	if err := s.repo.Save(ctx, manufacturer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "manufacturer name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update manufacturer")
	}
	return manufacturer, nil
}

func (s *service) DeleteManufacturer(ctx context.Context, id uuid.UUID) error {
	manufacturer, err := s.repo.FindManufacturer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, manufacturer); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "manufacturer still has products")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete manufacturer")
	}
	return nil
}

func (s *service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category := models.Category{Name: name}
	if err := s.repo.Save(ctx, &category); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create category")
	}
	return &category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category.Name = name
	if err := s.repo.Save(ctx, category); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update category")
	}
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, category); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete category")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := s.validateProduct(ctx, input); err != nil {
		return nil, err
	}
	product := models.Product{
		ManufacturerID: input.ManufacturerID,
		CategoryID:     input.CategoryID,
		SKU:            input.SKU,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Price:          input.Price,
	}
	if err := s.repo.Save(ctx, &product); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create product")
	}
	return &product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProduct(ctx, input); err != nil {
		return nil, err
	}

	product.ManufacturerID = input.ManufacturerID
	product.CategoryID = input.CategoryID
	product.SKU = input.SKU
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.Manufacturer = nil
	product.Category = nil
	if err := s.repo.Save(ctx, product); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update product")
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return err
	}
	product.Manufacturer = nil
	product.Category = nil
	if err := s.repo.Delete(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete product")
	}
	return nil
}

func (s *service) SetStock(ctx context.Context, productID, locationID uuid.UUID, quantity int) error {
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return err
	}
	if _, err := s.repo.FindLocation(ctx, locationID); err != nil {
		return err
	}
	return s.stock.SetAbsolute(ctx, productID, locationID, quantity)
}

func (s *service) AdjustStock(ctx context.Context, productID, locationID uuid.UUID, delta int) error {
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return err
	}
	if _, err := s.repo.FindLocation(ctx, locationID); err != nil {
		return err
	}
	return s.stock.Adjust(ctx, productID, locationID, delta)
}

func (s *service) validateProduct(ctx context.Context, input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if _, err := s.repo.FindManufacturer(ctx, input.ManufacturerID); err != nil {
		return err
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
			return err
		}
	}
	return nil
}
