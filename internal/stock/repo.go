package stock

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

// Line addresses one (product, location) quantity for decrement or restore.
type Line struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Quantity   int
}

// Repository is the stock ledger: the only component allowed to mutate
// stock_lines rows. Decrements and restores lock every touched row for the
// duration of the surrounding transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
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

// Get returns the available quantity for the pair, 0 when no row exists.
func (r *Repository) Get(ctx context.Context, productID, locationID uuid.UUID) (int, error) {
	var row models.StockLine
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Quantity, nil
}

// DecrementAll checks and decrements every line inside the bound transaction.
// If any line is short the whole call fails and no line is mutated; the caller
// is expected to roll back. Rows are locked in a deterministic order so two
// contending conversions cannot deadlock.
func (r *Repository) DecrementAll(ctx context.Context, lines []Line) error {
	ordered := sortedLines(lines)

	for _, line := range ordered {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		row, err := r.lockLine(ctx, line.ProductID, line.LocationID)
		if err != nil {
			return err
		}
		available := 0
		if row != nil {
			available = row.Quantity
		}
		if available < line.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(pkgerrors.InsufficientStockDetails{
					ProductID:  line.ProductID.String(),
					LocationID: line.LocationID.String(),
					Requested:  line.Quantity,
					Available:  available,
				})
		}
	}

	for _, line := range ordered {
		res := r.db.WithContext(ctx).
			Model(&models.StockLine{}).
			Where("product_id = ? AND location_id = ? AND quantity >= ?",
				line.ProductID, line.LocationID, line.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", line.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// The guard re-checks under the lock taken above; a miss here
			// means the caller is not running inside a transaction.
			return pkgerrors.New(pkgerrors.CodeConflict, "stock line changed mid-decrement")
		}
	}
	return nil
}

// Restore increments each line by its given quantity. It is the compensating
// action for reject/cancel; at-most-once semantics are enforced by the order
// state machine, not here. Missing rows are recreated, since catalog-admin
// deletes may race a restore.
func (r *Repository) Restore(ctx context.Context, lines []Line) error {
	for _, line := range sortedLines(lines) {
		if line.Quantity <= 0 {
			continue
		}
		row, err := r.lockLine(ctx, line.ProductID, line.LocationID)
		if err != nil {
			return err
		}
		if row == nil {
			created := models.StockLine{
				ProductID:  line.ProductID,
				LocationID: line.LocationID,
				Quantity:   line.Quantity,
			}
			if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
				return err
			}
			continue
		}
		err = r.db.WithContext(ctx).
			Model(&models.StockLine{}).
			Where("product_id = ? AND location_id = ?", line.ProductID, line.LocationID).
			Update("quantity", gorm.Expr("quantity + ?", line.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SetAbsolute upserts the pair to an exact quantity (admin override).
func (r *Repository) SetAbsolute(ctx context.Context, productID, locationID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	row := models.StockLine{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   quantity,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "location_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&row).Error
}

// Adjust applies a relative delta, failing when the result would go negative.
// Each branch is a single guarded statement so the check and the write cannot
// be split by a concurrent decrement, even when called outside a transaction.
func (r *Repository) Adjust(ctx context.Context, productID, locationID uuid.UUID, delta int) error {
	if delta >= 0 {
		row := models.StockLine{
			ProductID:  productID,
			LocationID: locationID,
			Quantity:   delta,
		}
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "product_id"}, {Name: "location_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"quantity":   gorm.Expr("stock_lines.quantity + ?", delta),
					"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
				}),
			}).
			Create(&row).Error
	}

	res := r.db.WithContext(ctx).
		Model(&models.StockLine{}).
		Where("product_id = ? AND location_id = ? AND quantity + ? >= 0", productID, locationID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := r.Get(ctx, productID, locationID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "stock adjustment would go below zero").
			WithDetails(pkgerrors.InsufficientStockDetails{
				ProductID:  productID.String(),
				LocationID: locationID.String(),
				Requested:  -delta,
				Available:  current,
			})
	}
	return nil
}

// lockLine loads the row under SELECT ... FOR UPDATE. Returns nil without
// error when no row exists. sqlite (used in tests) has no row locks and
// serializes writers on its own, so the clause is only applied on postgres.
func (r *Repository) lockLine(ctx context.Context, productID, locationID uuid.UUID) (*models.StockLine, error) {
	tx := r.db.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.StockLine
	err := tx.Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func sortedLines(lines []Line) []Line {
	ordered := append([]Line(nil), lines...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].ProductID != ordered[j].ProductID {
			return ordered[i].ProductID.String() < ordered[j].ProductID.String()
		}
		return ordered[i].LocationID.String() < ordered[j].LocationID.String()
	})
	return ordered
}
