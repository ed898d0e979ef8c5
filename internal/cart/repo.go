package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storebot/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for per-user cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
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

// Upsert sets the quantity for the (user, product, location) line, creating
// the row when absent. Quantity must be positive; zero is handled by the
// service as a delete.
func (r *Repository) Upsert(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "product_id"}, {Name: "location_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(line).Error
}

// Delete removes one cart line. Removing an absent line is not an error.
func (r *Repository) Delete(ctx context.Context, userID int64, productID, locationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND location_id = ?", userID, productID, locationID).
		Delete(&models.CartLine{}).Error
}

// Clear removes every line for the user.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).Error
}

// List returns the user's raw cart lines in insertion order.
func (r *Repository) List(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var rows []models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
