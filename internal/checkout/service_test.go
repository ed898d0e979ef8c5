package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storebot/storefront-backend/internal/cart"
	"github.com/storebot/storefront-backend/internal/catalog"
	"github.com/storebot/storefront-backend/internal/orders"
	"github.com/storebot/storefront-backend/internal/stock"
	"github.com/storebot/storefront-backend/pkg/db"
	"github.com/storebot/storefront-backend/pkg/db/models"
	"github.com/storebot/storefront-backend/pkg/enums"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type stubUserGate struct {
	blocked map[int64]bool
}

func (s *stubUserGate) IsBlocked(_ context.Context, userID int64) (bool, error) {
	return s.blocked[userID], nil
}

type fixture struct {
	conn         *gorm.DB
	svc          Service
	carts        *cart.Repository
	stock        *stock.Repository
	loc          uuid.UUID
	manufacturer uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Location{}, &models.Manufacturer{}, &models.Category{}, &models.Product{},
		&models.CartLine{}, &models.StockLine{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	location := models.Location{Name: "Main"}
	if err := conn.Create(&location).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	manufacturer := models.Manufacturer{Name: "Acme"}
	if err := conn.Create(&manufacturer).Error; err != nil {
		t.Fatalf("seed manufacturer: %v", err)
	}

	cartRepo := cart.NewRepository(conn)
	stockRepo := stock.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	log := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(cartRepo, stockRepo, orderRepo, catalogRepo, &stubUserGate{blocked: map[int64]bool{999: true}}, db.FromGorm(conn), log, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		conn:         conn,
		svc:          svc,
		carts:        cartRepo,
		stock:        stockRepo,
		loc:          location.ID,
		manufacturer: manufacturer.ID,
	}
}

func (f *fixture) addProduct(t *testing.T, name, price string, stockQty int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ManufacturerID: f.manufacturer,
		Name:           name,
		Price:          decimal.RequireFromString(price),
	}
	if err := f.conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if stockQty > 0 {
		line := models.StockLine{ProductID: product.ID, LocationID: f.loc, Quantity: stockQty}
		if err := f.conn.Create(&line).Error; err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}
	return product.ID
}

func (f *fixture) stage(t *testing.T, userID int64, productID uuid.UUID, qty int) {
	t.Helper()
	line := models.CartLine{UserID: userID, ProductID: productID, LocationID: f.loc, Quantity: qty}
	if err := f.carts.Upsert(context.Background(), &line); err != nil {
		t.Fatalf("stage cart line: %v", err)
	}
}

func TestCreateOrderFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productA := f.addProduct(t, "Widget", "10.00", 10)
	productB := f.addProduct(t, "Gadget", "5.00", 4)
	f.stage(t, 7, productA, 3)
	f.stage(t, 7, productB, 1)

	order, err := f.svc.CreateOrderFromCart(ctx, 7, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Status != enums.OrderStatusPendingAdminApproval {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("35.00")) {
		t.Fatalf("expected total 35.00, got %s", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.ReservedQuantity != item.Quantity {
			t.Fatalf("expected reserved == quantity, got %+v", item)
		}
		if item.ProductName == "" || item.LocationName == "" {
			t.Fatalf("expected name snapshots, got %+v", item)
		}
	}

	if qty, _ := f.stock.Get(ctx, productA, f.loc); qty != 7 {
		t.Fatalf("expected stock A at 7, got %d", qty)
	}
	if qty, _ := f.stock.Get(ctx, productB, f.loc); qty != 3 {
		t.Fatalf("expected stock B at 3, got %d", qty)
	}

	lines, _ := f.carts.List(ctx, 7)
	if len(lines) != 0 {
		t.Fatalf("expected cart cleared, got %+v", lines)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrderFromCart(context.Background(), 7, enums.PaymentMethodCash)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation for empty cart, got %v", err)
	}
}

func TestCreateOrderContentionOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Widget", "10.00", 5)
	f.stage(t, 1, product, 3)
	f.stage(t, 2, product, 4)

	if _, err := f.svc.CreateOrderFromCart(ctx, 1, enums.PaymentMethodCash); err != nil {
		t.Fatalf("first order: %v", err)
	}

	_, err := f.svc.CreateOrderFromCart(ctx, 2, enums.PaymentMethodCash)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected CodeInsufficientStock, got %v", err)
	}

	// losing conversion rolled back wholesale: stock reflects one decrement,
	// the losing cart is intact
	if qty, _ := f.stock.Get(ctx, product, f.loc); qty != 2 {
		t.Fatalf("expected stock 2 after single decrement, got %d", qty)
	}
	lines, _ := f.carts.List(ctx, 2)
	if len(lines) != 1 || lines[0].Quantity != 4 {
		t.Fatalf("expected losing cart preserved, got %+v", lines)
	}

	var orderCount int64
	if err := f.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected exactly one order, got %d", orderCount)
	}
}

func TestCreateOrderFailureRollsBackStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	good := f.addProduct(t, "Widget", "10.00", 10)
	vanished := f.addProduct(t, "Gizmo", "4.00", 0)
	f.stage(t, 7, good, 2)
	f.stage(t, 7, vanished, 1)

	// catalog admin removes the product after it was staged; the conversion's
	// re-resolution inside the transaction must see the deletion
	if err := f.conn.Delete(&models.Product{}, "id = ?", vanished).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}

	_, err := f.svc.CreateOrderFromCart(ctx, 7, enums.PaymentMethodCash)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}

	if qty, _ := f.stock.Get(ctx, good, f.loc); qty != 10 {
		t.Fatalf("expected stock untouched, got %d", qty)
	}
	lines, _ := f.carts.List(ctx, 7)
	if len(lines) != 2 {
		t.Fatalf("expected cart preserved, got %+v", lines)
	}
}

func TestCreateOrderBlockedUser(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, "Widget", "10.00", 10)
	f.stage(t, 999, product, 1)

	_, err := f.svc.CreateOrderFromCart(context.Background(), 999, enums.PaymentMethodCash)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected CodeForbidden, got %v", err)
	}
}

func TestCreateOrderUnknownPaymentMethod(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrderFromCart(context.Background(), 7, enums.PaymentMethod("barter"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}
