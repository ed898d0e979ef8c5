package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storebot/storefront-backend/internal/stock"
	"github.com/storebot/storefront-backend/pkg/db"
	"github.com/storebot/storefront-backend/pkg/db/models"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/pagination"
)

type fixture struct {
	conn    *gorm.DB
	svc     Service
	stock   *stock.Repository
	orders  *Repository
	product uuid.UUID
	loc     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.StockLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	orderRepo := NewRepository(conn)
	stockRepo := stock.NewRepository(conn)
	log := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(orderRepo, stockRepo, db.FromGorm(conn), log, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		conn:    conn,
		svc:     svc,
		stock:   stockRepo,
		orders:  orderRepo,
		product: uuid.New(),
		loc:     uuid.New(),
	}
}

// seedOrder creates an order in the given status with one item of quantity 2
// and leaves 3 units on the stock line, mirroring the state right after a
// conversion decremented 2 from 5.
func (f *fixture) seedOrder(t *testing.T, status enums.OrderStatus) *models.Order {
	t.Helper()
	line := models.StockLine{ProductID: f.product, LocationID: f.loc, Quantity: 3}
	if err := f.conn.Create(&line).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	order := models.Order{
		UserID:        42,
		Status:        status,
		PaymentMethod: enums.PaymentMethodCash,
		TotalAmount:   decimal.RequireFromString("20.00"),
		Items: []models.OrderItem{{
			ProductID:        f.product,
			LocationID:       f.loc,
			Quantity:         2,
			ReservedQuantity: 2,
			PriceAtOrder:     decimal.RequireFromString("10.00"),
			ProductName:      "Widget",
			LocationName:     "Main",
		}},
	}
	if err := f.orders.Create(context.Background(), &order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &order
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPendingAdminApproval)
	ctx := context.Background()

	updated, err := f.svc.Approve(ctx, order.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != enums.OrderStatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}

	// approve never touches stock
	if qty, _ := f.stock.Get(ctx, f.product, f.loc); qty != 3 {
		t.Fatalf("expected stock untouched at 3, got %d", qty)
	}

	_, err = f.svc.Approve(ctx, order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeAlreadyProcessed) {
		t.Fatalf("expected CodeAlreadyProcessed on second approve, got %v", err)
	}
}

func TestRejectRestoresStockExactlyOnce(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPendingAdminApproval)
	ctx := context.Background()

	updated, err := f.svc.Reject(ctx, order.ID, "out of season")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if updated.Status != enums.OrderStatusRejected {
		t.Fatalf("expected rejected, got %s", updated.Status)
	}
	if updated.AdminNotes == nil || *updated.AdminNotes != "out of season" {
		t.Fatalf("expected reason in admin notes, got %v", updated.AdminNotes)
	}

	if qty, _ := f.stock.Get(ctx, f.product, f.loc); qty != 5 {
		t.Fatalf("expected stock restored to 5, got %d", qty)
	}

	var items []models.OrderItem
	if err := f.conn.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 1 || items[0].ReservedQuantity != 0 {
		t.Fatalf("expected reserved quantity zeroed, got %+v", items)
	}

	_, err = f.svc.Reject(ctx, order.ID, "again")
	if !pkgerrors.IsCode(err, pkgerrors.CodeAlreadyProcessed) {
		t.Fatalf("expected CodeAlreadyProcessed on second reject, got %v", err)
	}
	if qty, _ := f.stock.Get(ctx, f.product, f.loc); qty != 5 {
		t.Fatalf("expected no double restore, got %d", qty)
	}
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.seedOrder(t, enums.OrderStatusPendingAdminApproval)
	_, err := f.svc.Cancel(ctx, pending.ID, "nope")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected CodeInvalidTransition for pending cancel, got %v", err)
	}

	g := newFixture(t)
	approved := g.seedOrder(t, enums.OrderStatusApproved)
	updated, err := g.svc.Cancel(ctx, approved.ID, "customer changed mind")
	if err != nil {
		t.Fatalf("cancel approved: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if qty, _ := g.stock.Get(ctx, g.product, g.loc); qty != 5 {
		t.Fatalf("expected stock restored to 5, got %d", qty)
	}

	_, err = g.svc.Cancel(ctx, approved.ID, "again")
	if !pkgerrors.IsCode(err, pkgerrors.CodeAlreadyProcessed) {
		t.Fatalf("expected CodeAlreadyProcessed on second cancel, got %v", err)
	}
}

func TestChangeStatusForwardChainOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusApproved)

	updated, err := f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("approved -> processing: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}

	// skipping a step is off-chain
	_, err = f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected CodeInvalidTransition for skip, got %v", err)
	}

	// reversing is off-chain
	_, err = f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusApproved)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected CodeInvalidTransition for reverse, got %v", err)
	}
}

func TestChangeStatusFromTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusCompleted)

	for _, target := range []enums.OrderStatus{
		enums.OrderStatusApproved,
		enums.OrderStatusProcessing,
		enums.OrderStatusCancelled,
		enums.OrderStatusCompleted,
	} {
		_, err := f.svc.ChangeStatus(ctx, order.ID, target)
		if !pkgerrors.IsCode(err, pkgerrors.CodeAlreadyProcessed) {
			t.Fatalf("completed -> %s: expected CodeAlreadyProcessed, got %v", target, err)
		}
	}
}

func TestChangeStatusUnknownTarget(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusApproved)

	_, err := f.svc.ChangeStatus(context.Background(), order.ID, enums.OrderStatus("teleported"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestTransitionMissingOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestListForAdminFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedOrder(t, enums.OrderStatusPendingAdminApproval)
	second := models.Order{
		UserID:        99,
		Status:        enums.OrderStatusApproved,
		PaymentMethod: enums.PaymentMethodCard,
		TotalAmount:   decimal.RequireFromString("5.00"),
	}
	if err := f.orders.Create(ctx, &second); err != nil {
		t.Fatalf("seed second order: %v", err)
	}

	status := enums.OrderStatusApproved
	page, err := f.svc.ListForAdmin(ctx, AdminFilters{Status: &status}, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].UserID != 99 {
		t.Fatalf("unexpected page: total=%d items=%+v", page.Total, page.Items)
	}

	userID := int64(42)
	page, err = f.svc.ListForAdmin(ctx, AdminFilters{UserID: &userID}, pagination.Params{})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if page.Total != 1 || page.Items[0].UserID != 42 {
		t.Fatalf("unexpected user filter result: %+v", page.Items)
	}
}
