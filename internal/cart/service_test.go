package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

type stubCatalog struct {
	products  map[uuid.UUID]*models.Product
	locations map[uuid.UUID]*models.Location
}

func (s *stubCatalog) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) FindLocation(_ context.Context, id uuid.UUID) (*models.Location, error) {
	if l, ok := s.locations[id]; ok {
		return l, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
}

type stubStock struct {
	levels map[[2]uuid.UUID]int
}

func (s *stubStock) Get(_ context.Context, productID, locationID uuid.UUID) (int, error) {
	return s.levels[[2]uuid.UUID{productID, locationID}], nil
}

type stubUserGate struct {
	blocked map[int64]bool
}

func (s *stubUserGate) IsBlocked(_ context.Context, userID int64) (bool, error) {
	return s.blocked[userID], nil
}

func newCartDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.CartLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, catalog *stubCatalog, stock *stubStock) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(newCartDB(t))
	svc, err := NewService(repo, catalog, stock, &stubUserGate{blocked: map[int64]bool{999: true}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestUpsertSetSemantics(t *testing.T) {
	product := uuid.New()
	location := uuid.New()
	catalog := &stubCatalog{
		products:  map[uuid.UUID]*models.Product{product: {ID: product, Name: "Widget", Price: decimal.RequireFromString("10.00")}},
		locations: map[uuid.UUID]*models.Location{location: {ID: location, Name: "Main"}},
	}
	stock := &stubStock{levels: map[[2]uuid.UUID]int{{product, location}: 5}}
	svc, repo := newTestService(t, catalog, stock)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, 7, UpsertInput{ProductID: product, LocationID: location, Quantity: 2}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	res, err := svc.Upsert(ctx, 7, UpsertInput{ProductID: product, LocationID: location, Quantity: 4})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if res.Quantity != 4 || res.LowStock {
		t.Fatalf("expected quantity 4 without low-stock hint, got %+v", res)
	}

	lines, err := repo.List(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 4 {
		t.Fatalf("expected one line with quantity 4, got %+v", lines)
	}
}

func TestUpsertZeroDeletesLine(t *testing.T) {
	product := uuid.New()
	location := uuid.New()
	catalog := &stubCatalog{
		products:  map[uuid.UUID]*models.Product{product: {ID: product, Name: "Widget", Price: decimal.RequireFromString("10.00")}},
		locations: map[uuid.UUID]*models.Location{location: {ID: location, Name: "Main"}},
	}
	svc, repo := newTestService(t, catalog, &stubStock{levels: map[[2]uuid.UUID]int{}})
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, 7, UpsertInput{ProductID: product, LocationID: location, Quantity: 3}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, 7, UpsertInput{ProductID: product, LocationID: location, Quantity: 0}); err != nil {
		t.Fatalf("zero upsert: %v", err)
	}

	lines, _ := repo.List(ctx, 7)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}
}

func TestUpsertValidation(t *testing.T) {
	product := uuid.New()
	location := uuid.New()
	catalog := &stubCatalog{
		products:  map[uuid.UUID]*models.Product{product: {ID: product, Name: "Widget", Price: decimal.RequireFromString("10.00")}},
		locations: map[uuid.UUID]*models.Location{location: {ID: location, Name: "Main"}},
	}
	svc, _ := newTestService(t, catalog, &stubStock{levels: map[[2]uuid.UUID]int{}})
	ctx := context.Background()

	_, err := svc.Upsert(ctx, 7, UpsertInput{ProductID: product, LocationID: location, Quantity: -1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected CodeValidation for negative quantity, got %v", err)
	}

	_, err = svc.Upsert(ctx, 7, UpsertInput{ProductID: uuid.New(), LocationID: location, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected CodeNotFound for unknown product, got %v", err)
	}

	_, err = svc.Upsert(ctx, 999, UpsertInput{ProductID: product, LocationID: location, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected CodeForbidden for blocked user, got %v", err)
	}
}

func TestUpsertLowStockHintDoesNotBlock(t *testing.T) {
	product := uuid.New()
	location := uuid.New()
	catalog := &stubCatalog{
		products:  map[uuid.UUID]*models.Product{product: {ID: product, Name: "Widget", Price: decimal.RequireFromString("10.00")}},
		locations: map[uuid.UUID]*models.Location{location: {ID: location, Name: "Main"}},
	}
	stock := &stubStock{levels: map[[2]uuid.UUID]int{{product, location}: 2}}
	svc, _ := newTestService(t, catalog, stock)

	res, err := svc.Upsert(context.Background(), 7, UpsertInput{ProductID: product, LocationID: location, Quantity: 5})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !res.LowStock || res.Available != 2 {
		t.Fatalf("expected low-stock hint with available 2, got %+v", res)
	}
}

func TestViewPricesAtCurrentCatalogAndPrunesStale(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	stale := uuid.New()
	location := uuid.New()
	catalog := &stubCatalog{
		products: map[uuid.UUID]*models.Product{
			productA: {ID: productA, Name: "Widget", Price: decimal.RequireFromString("10.00")},
			productB: {ID: productB, Name: "Gadget", Price: decimal.RequireFromString("2.50")},
		},
		locations: map[uuid.UUID]*models.Location{location: {ID: location, Name: "Main"}},
	}
	stock := &stubStock{levels: map[[2]uuid.UUID]int{
		{productA, location}: 5,
		{productB, location}: 1,
	}}
	svc, repo := newTestService(t, catalog, stock)
	ctx := context.Background()

	for _, line := range []models.CartLine{
		{UserID: 7, ProductID: productA, LocationID: location, Quantity: 2},
		{UserID: 7, ProductID: productB, LocationID: location, Quantity: 3},
		{UserID: 7, ProductID: stale, LocationID: location, Quantity: 1},
	} {
		l := line
		if err := repo.Upsert(ctx, &l); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	view, err := svc.View(ctx, 7)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected stale line pruned, got %d items", len(view.Items))
	}
	if !view.Total.Equal(decimal.RequireFromString("27.50")) {
		t.Fatalf("expected total 27.50, got %s", view.Total)
	}

	lines, _ := repo.List(ctx, 7)
	if len(lines) != 2 {
		t.Fatalf("expected stale line deleted from store, got %d", len(lines))
	}
}
