package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

// Repository exposes catalog persistence: products, locations, manufacturers,
// categories, and the browse queries the storefront renders from.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct loads a product with its manufacturer and category.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Manufacturer").
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// FindLocation loads one location.
func (r *Repository) FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, err
	}
	return &location, nil
}

// FindManufacturer loads one manufacturer.
func (r *Repository) FindManufacturer(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error) {
	var manufacturer models.Manufacturer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&manufacturer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manufacturer not found")
		}
		return nil, err
	}
	return &manufacturer, nil
}

// FindCategory loads one category.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, err
	}
	return &category, nil
}

// ListLocationsWithStock returns locations holding at least one in-stock line.
func (r *Repository) ListLocationsWithStock(ctx context.Context) ([]models.Location, error) {
	var rows []models.Location
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.
			Model(&models.StockLine{}).
			Select("location_id").
			Where("quantity > 0")).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListManufacturersByLocation returns manufacturers with at least one product
// in stock at the location.
func (r *Repository) ListManufacturersByLocation(ctx context.Context, locationID uuid.UUID) ([]models.Manufacturer, error) {
	var rows []models.Manufacturer
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.
			Model(&models.Product{}).
			Select("products.manufacturer_id").
			Joins("JOIN stock_lines ON stock_lines.product_id = products.id").
			Where("stock_lines.location_id = ? AND stock_lines.quantity > 0", locationID)).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ProductAvailability pairs a product with its quantity at one location.
type ProductAvailability struct {
	Product   models.Product
	Available int
}

// ListProductsByManufacturer returns the manufacturer's products in stock at
// the location, with the available quantity.
func (r *Repository) ListProductsByManufacturer(ctx context.Context, manufacturerID, locationID uuid.UUID) ([]ProductAvailability, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN stock_lines ON stock_lines.product_id = products.id").
		Where("products.manufacturer_id = ?", manufacturerID).
		Where("stock_lines.location_id = ? AND stock_lines.quantity > 0", locationID).
		Order("products.name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	out := make([]ProductAvailability, 0, len(products))
	for _, product := range products {
		var line models.StockLine
		err := r.db.WithContext(ctx).
			Where("product_id = ? AND location_id = ?", product.ID, locationID).
			First(&line).Error
		if err != nil {
			return nil, err
		}
		out = append(out, ProductAvailability{Product: product, Available: line.Quantity})
	}
	return out, nil
}

// LocationStock pairs a location with the product's quantity there.
type LocationStock struct {
	Location models.Location
	Quantity int
}

// ListStockByProduct returns per-location quantities for one product,
// in-stock locations only.
func (r *Repository) ListStockByProduct(ctx context.Context, productID uuid.UUID) ([]LocationStock, error) {
	var lines []models.StockLine
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity > 0", productID).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}

	out := make([]LocationStock, 0, len(lines))
	for _, line := range lines {
		var location models.Location
		err := r.db.WithContext(ctx).Where("id = ?", line.LocationID).First(&location).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, LocationStock{Location: location, Quantity: line.Quantity})
	}
	return out, nil
}

// Save upserts an entity owned by the catalog (product, location,
// manufacturer, category).
func (r *Repository) Save(ctx context.Context, entity any) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Delete removes an entity by primary key.
func (r *Repository) Delete(ctx context.Context, entity any) error {
	return r.db.WithContext(ctx).Delete(entity).Error
}

// CountProducts returns the total number of products.
func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error
	return total, err
}
