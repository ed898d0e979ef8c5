package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.StockLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedLine(t *testing.T, conn *gorm.DB, productID, locationID uuid.UUID, qty int) {
	t.Helper()
	row := models.StockLine{ProductID: productID, LocationID: locationID, Quantity: qty}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed stock line: %v", err)
	}
}

func TestGetMissingReturnsZero(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	qty, err := repo.Get(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 0 {
		t.Fatalf("expected 0 for missing line, got %d", qty)
	}
}

func TestDecrementAllHappyPath(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	product := uuid.New()
	location := uuid.New()
	seedLine(t, conn, product, location, 5)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).DecrementAll(context.Background(), []Line{
			{ProductID: product, LocationID: location, Quantity: 3},
		})
	})
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	qty, err := repo.Get(context.Background(), product, location)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if qty != 2 {
		t.Fatalf("expected 2 remaining, got %d", qty)
	}
}

func TestDecrementAllInsufficientLeavesNothingMutated(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	okProduct := uuid.New()
	shortProduct := uuid.New()
	location := uuid.New()
	seedLine(t, conn, okProduct, location, 10)
	seedLine(t, conn, shortProduct, location, 1)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).DecrementAll(context.Background(), []Line{
			{ProductID: okProduct, LocationID: location, Quantity: 4},
			{ProductID: shortProduct, LocationID: location, Quantity: 2},
		})
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected CodeInsufficientStock, got %v", err)
	}

	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected *pkgerrors.Error")
	}
	details, ok := appErr.Details().(pkgerrors.InsufficientStockDetails)
	if !ok {
		t.Fatalf("expected InsufficientStockDetails, got %T", appErr.Details())
	}
	if details.ProductID != shortProduct.String() || details.Requested != 2 || details.Available != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}

	qty, _ := repo.Get(context.Background(), okProduct, location)
	if qty != 10 {
		t.Fatalf("expected untouched 10, got %d", qty)
	}
}

func TestDecrementAllMissingLineIsInsufficient(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).DecrementAll(context.Background(), []Line{
			{ProductID: uuid.New(), LocationID: uuid.New(), Quantity: 1},
		})
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected CodeInsufficientStock, got %v", err)
	}
}

func TestRestoreIncrementsAndRecreates(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	existing := uuid.New()
	missing := uuid.New()
	location := uuid.New()
	seedLine(t, conn, existing, location, 3)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).Restore(context.Background(), []Line{
			{ProductID: existing, LocationID: location, Quantity: 2},
			{ProductID: missing, LocationID: location, Quantity: 4},
		})
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if qty, _ := repo.Get(context.Background(), existing, location); qty != 5 {
		t.Fatalf("expected 5, got %d", qty)
	}
	if qty, _ := repo.Get(context.Background(), missing, location); qty != 4 {
		t.Fatalf("expected recreated line with 4, got %d", qty)
	}
}

func TestSetAbsolute(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	product := uuid.New()
	location := uuid.New()

	if err := repo.SetAbsolute(context.Background(), product, location, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 7 {
		t.Fatalf("expected 7, got %d", qty)
	}

	if err := repo.SetAbsolute(context.Background(), product, location, 2); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 2 {
		t.Fatalf("expected 2 after overwrite, got %d", qty)
	}

	err := repo.SetAbsolute(context.Background(), product, location, -1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation for negative, got %v", err)
	}
}

func TestAdjust(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	product := uuid.New()
	location := uuid.New()
	seedLine(t, conn, product, location, 5)

	if err := repo.Adjust(context.Background(), product, location, -3); err != nil {
		t.Fatalf("adjust down: %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 2 {
		t.Fatalf("expected 2, got %d", qty)
	}

	err := repo.Adjust(context.Background(), product, location, -5)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation below zero, got %v", err)
	}

	if err := repo.Adjust(context.Background(), product, location, 10); err != nil {
		t.Fatalf("adjust up: %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 12 {
		t.Fatalf("expected 12, got %d", qty)
	}
}

func TestAdjustCreatesMissingLine(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	product := uuid.New()
	location := uuid.New()

	if err := repo.Adjust(context.Background(), product, location, 4); err != nil {
		t.Fatalf("adjust on missing line: %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 4 {
		t.Fatalf("expected 4, got %d", qty)
	}

	err := repo.Adjust(context.Background(), uuid.New(), location, -1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation for negative delta on missing line, got %v", err)
	}
}

// An admin adjust is relative to whatever the row holds at execution time;
// a conversion decrement that lands after the admin last looked at the
// quantity must not be resurrected by the adjust.
func TestAdjustAppliesDeltaAfterInterleavedDecrement(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	product := uuid.New()
	location := uuid.New()
	seedLine(t, conn, product, location, 5)

	if qty, _ := repo.Get(context.Background(), product, location); qty != 5 {
		t.Fatalf("expected 5 before decrement, got %d", qty)
	}

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).DecrementAll(context.Background(), []Line{
			{ProductID: product, LocationID: location, Quantity: 3},
		})
	})
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}

	if err := repo.Adjust(context.Background(), product, location, 1); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 3 {
		t.Fatalf("expected 3 after decrement and adjust, got %d", qty)
	}

	err = repo.Adjust(context.Background(), product, location, -4)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
	if qty, _ := repo.Get(context.Background(), product, location); qty != 3 {
		t.Fatalf("rejected adjust must not mutate, got %d", qty)
	}
}
