package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storebot/storefront-backend/internal/cart"
	"github.com/storebot/storefront-backend/internal/catalog"
	"github.com/storebot/storefront-backend/internal/orders"
	"github.com/storebot/storefront-backend/internal/stock"
	"github.com/storebot/storefront-backend/pkg/db/models"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/metrics"
)

type cartStore interface {
	WithTx(tx *gorm.DB) *cart.Repository
}

type stockLedger interface {
	WithTx(tx *gorm.DB) *stock.Repository
}

type orderWriter interface {
	WithTx(tx *gorm.DB) *orders.Repository
}

type catalogReader interface {
	WithTx(tx *gorm.DB) *catalog.Repository
}

type userGate interface {
	IsBlocked(ctx context.Context, userID int64) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a cart into an order. The whole conversion, including the
// stock decrement and the cart clear, commits or rolls back as one
// transaction: there is no window where stock was decremented without a
// matching order row.
type Service interface {
	CreateOrderFromCart(ctx context.Context, userID int64, paymentMethod enums.PaymentMethod) (*models.Order, error)
}

type service struct {
	carts   cartStore
	stock   stockLedger
	orders  orderWriter
	catalog catalogReader
	users   userGate
	tx      txRunner
	log     *logger.Logger
	metrics *metrics.EngineMetrics
}

// NewService builds a checkout service backed by the provided stack.
func NewService(carts cartStore, stockRepo stockLedger, orders orderWriter, catalog catalogReader, users userGate, tx txRunner, log *logger.Logger, engineMetrics *metrics.EngineMetrics) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user gate required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:   carts,
		stock:   stockRepo,
		orders:  orders,
		catalog: catalog,
		users:   users,
		tx:      tx,
		log:     log,
		metrics: engineMetrics,
	}, nil
}

func (s *service) CreateOrderFromCart(ctx context.Context, userID int64, paymentMethod enums.PaymentMethod) (*models.Order, error) {
	if !paymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	blocked, err := s.users.IsBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is blocked")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := s.carts.WithTx(tx).List(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		items := make([]models.OrderItem, 0, len(lines))
		decrements := make([]stock.Line, 0, len(lines))
		total := decimal.Zero
		catalogTx := s.catalog.WithTx(tx)
		for _, line := range lines {
			// Re-resolve live catalog data: prices may have moved and
			// products may have vanished since the line was staged.
			product, err := catalogTx.FindProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			location, err := catalogTx.FindLocation(ctx, line.LocationID)
			if err != nil {
				return err
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:        line.ProductID,
				LocationID:       line.LocationID,
				Quantity:         line.Quantity,
				ReservedQuantity: line.Quantity,
				PriceAtOrder:     product.Price,
				ProductName:      product.Name,
				LocationName:     location.Name,
			})
			decrements = append(decrements, stock.Line{
				ProductID:  line.ProductID,
				LocationID: line.LocationID,
				Quantity:   line.Quantity,
			})
		}

		if err := s.stock.WithTx(tx).DecrementAll(ctx, decrements); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				s.metrics.IncStockConflicts()
			}
			return err
		}

		created := models.Order{
			UserID:        userID,
			Status:        enums.OrderStatusPendingAdminApproval,
			PaymentMethod: paymentMethod,
			TotalAmount:   total,
			Items:         items,
		}
		if err := s.orders.WithTx(tx).Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create order")
		}

		if err := s.carts.WithTx(tx).Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear cart")
		}

		order = &created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrdersCreated()
	logCtx := s.log.WithUserID(ctx, userID)
	logCtx = s.log.WithOrderID(logCtx, order.ID.String())
	s.log.Info(logCtx, "order created from cart")
	return order, nil
}
