package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storebot/storefront-backend/internal/stock"
	"github.com/storebot/storefront-backend/pkg/db/models"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/metrics"
	"github.com/storebot/storefront-backend/pkg/pagination"
)

type orderRepository interface {
	WithTx(tx *gorm.DB) *Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Order, error)
	ListForAdmin(ctx context.Context, filters AdminFilters, params pagination.Params) (*pagination.Page[models.Order], error)
}

type stockRestorer interface {
	WithTx(tx *gorm.DB) *stock.Repository
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the order lifecycle. Every transition re-reads the current
// status under a row lock inside one transaction, so a restore can never run
// twice for the same order.
type Service interface {
	Approve(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	GetDetails(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]models.Order, error)
	ListForAdmin(ctx context.Context, filters AdminFilters, params pagination.Params) (*pagination.Page[models.Order], error)
}

type service struct {
	repo    orderRepository
	stock   stockRestorer
	tx      txRunner
	log     *logger.Logger
	metrics *metrics.EngineMetrics
}

// NewService builds an order lifecycle service backed by the provided stack.
func NewService(repo orderRepository, stockRepo stockRestorer, tx txRunner, log *logger.Logger, engineMetrics *metrics.EngineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, stock: stockRepo, tx: tx, log: log, metrics: engineMetrics}, nil
}

func (s *service) Approve(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (enums.OrderStatus, bool, *string, error) {
		if !CanReject(order.Status) {
			// Approve shares reject's precondition: the order must still be
			// awaiting the decision.
			return "", false, nil, pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "order already processed")
		}
		return enums.OrderStatusApproved, false, nil, nil
	})
}

func (s *service) Reject(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (enums.OrderStatus, bool, *string, error) {
		if !CanReject(order.Status) {
			return "", false, nil, pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "order already processed")
		}
		notes := appendNote(order.AdminNotes, reason)
		return enums.OrderStatusRejected, true, notes, nil
	})
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (enums.OrderStatus, bool, *string, error) {
		if order.Status.IsTerminal() {
			return "", false, nil, pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "order already processed")
		}
		if !CanCancel(order.Status) {
			return "", false, nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
				"pending orders are rejected, not cancelled")
		}
		notes := appendNote(order.AdminNotes, reason)
		return enums.OrderStatusCancelled, true, notes, nil
	})
}

func (s *service) ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	return s.transition(ctx, orderID, func(order *models.Order) (enums.OrderStatus, bool, *string, error) {
		if order.Status.IsTerminal() {
			return "", false, nil, pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "order already processed")
		}
		if !CanAdvance(order.Status, to) {
			return "", false, nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
				"status transition disallowed").
				WithDetails(map[string]string{
					"from": order.Status.String(),
					"to":   to.String(),
				})
		}
		return to, false, nil, nil
	})
}

// transition runs one status change. decide inspects the locked order and
// returns the target status, whether stock must be restored, and replacement
// admin notes (nil keeps the current value).
func (s *service) transition(ctx context.Context, orderID uuid.UUID, decide func(*models.Order) (enums.OrderStatus, bool, *string, error)) (*models.Order, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		to, restoreStock, notes, err := decide(order)
		if err != nil {
			return err
		}

		if restoreStock {
			lines := restorableLines(order.Items)
			if len(lines) > 0 {
				if err := s.stock.WithTx(tx).Restore(ctx, lines); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "restore stock")
				}
				if err := repo.ZeroReserved(ctx, order.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "zero reserved quantities")
				}
				s.metrics.IncStockRestores()
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, to, notes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update order status")
		}

		order.Status = to
		if notes != nil {
			order.AdminNotes = notes
		}
		if restoreStock {
			for i := range order.Items {
				order.Items[i].ReservedQuantity = 0
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(updated.Status.String())
	logCtx := s.log.WithOrderID(ctx, updated.ID.String())
	logCtx = s.log.WithField(logCtx, "status", updated.Status.String())
	s.log.Info(logCtx, "order transitioned")
	return updated, nil
}

func (s *service) GetDetails(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

func (s *service) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *service) ListForAdmin(ctx context.Context, filters AdminFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	return s.repo.ListForAdmin(ctx, filters, params)
}

// restorableLines converts order items into the stock lines a compensating
// restore must apply. Items already zeroed contribute nothing.
func restorableLines(items []models.OrderItem) []stock.Line {
	lines := make([]stock.Line, 0, len(items))
	for _, item := range items {
		if item.ReservedQuantity <= 0 {
			continue
		}
		lines = append(lines, stock.Line{
			ProductID:  item.ProductID,
			LocationID: item.LocationID,
			Quantity:   item.ReservedQuantity,
		})
	}
	return lines
}

func appendNote(existing *string, note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return &note
	}
	combined := *existing + "\n" + note
	return &combined
}
