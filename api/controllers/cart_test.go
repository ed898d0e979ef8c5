package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storebot/storefront-backend/api/middleware"
	cartsvc "github.com/storebot/storefront-backend/internal/cart"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type stubCartService struct {
	upsertResult *cartsvc.UpsertResult
	upsertErr    error
	lastUserID   int64
	lastInput    cartsvc.UpsertInput
}

func (s *stubCartService) Upsert(_ context.Context, userID int64, input cartsvc.UpsertInput) (*cartsvc.UpsertResult, error) {
	s.lastUserID = userID
	s.lastInput = input
	return s.upsertResult, s.upsertErr
}

func (s *stubCartService) View(context.Context, int64) (*cartsvc.View, error) {
	return &cartsvc.View{Items: []cartsvc.Item{}, Total: decimal.Zero}, nil
}

func (s *stubCartService) Remove(context.Context, int64, uuid.UUID, uuid.UUID) error {
	return nil
}

func (s *stubCartService) Clear(context.Context, int64) error {
	return nil
}

func newCartRouter(svc cartsvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: io.Discard})
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(logg))
		r.Put("/v1/cart/items", CartUpsert(svc, logg))
		r.Get("/v1/cart", CartGet(svc, logg))
	})
	return r
}

func TestCartUpsertRequiresUserHeader(t *testing.T) {
	router := newCartRouter(&stubCartService{})

	req := httptest.NewRequest(http.MethodPut, "/v1/cart/items", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCartUpsertHappyPath(t *testing.T) {
	svc := &stubCartService{upsertResult: &cartsvc.UpsertResult{Quantity: 3, Available: 5}}
	router := newCartRouter(svc)

	body := `{"product_id":"` + uuid.NewString() + `","location_id":"` + uuid.NewString() + `","quantity":3}`
	req := httptest.NewRequest(http.MethodPut, "/v1/cart/items", strings.NewReader(body))
	req.Header.Set("X-User-Id", "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUserID != 42 || svc.lastInput.Quantity != 3 {
		t.Fatalf("unexpected service call: user=%d input=%+v", svc.lastUserID, svc.lastInput)
	}
}

func TestCartUpsertRejectsUnknownFields(t *testing.T) {
	router := newCartRouter(&stubCartService{})

	body := `{"product_id":"` + uuid.NewString() + `","location_id":"` + uuid.NewString() + `","quantity":1,"color":"red"}`
	req := httptest.NewRequest(http.MethodPut, "/v1/cart/items", strings.NewReader(body))
	req.Header.Set("X-User-Id", "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCartUpsertErrorEnvelope(t *testing.T) {
	svc := &stubCartService{upsertErr: pkgerrors.New(pkgerrors.CodeForbidden, "user is blocked")}
	router := newCartRouter(svc)

	body := `{"product_id":"` + uuid.NewString() + `","location_id":"` + uuid.NewString() + `","quantity":1}`
	req := httptest.NewRequest(http.MethodPut, "/v1/cart/items", strings.NewReader(body))
	req.Header.Set("X-User-Id", "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != "FORBIDDEN" || envelope.Error.Message != "user is blocked" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}
