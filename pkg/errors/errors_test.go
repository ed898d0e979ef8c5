package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeInsufficientStock, http.StatusConflict},
		{CodeInvalidTransition, http.StatusUnprocessableEntity},
		{CodeAlreadyProcessed, http.StatusConflict},
		{CodeForbidden, http.StatusForbidden},
		{CodePersistence, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected fallback metadata: %+v", meta)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("row lock timeout")
	err := Wrap(CodePersistence, cause, "decrement stock")

	if !errors.Is(err, cause) {
		t.Fatalf("wrapped error should match its cause")
	}
	if err.Code() != CodePersistence {
		t.Fatalf("code = %s, want %s", err.Code(), CodePersistence)
	}
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeAlreadyProcessed, "order is terminal")
	wrapped := fmt.Errorf("gateway: %w", inner)

	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeAlreadyProcessed {
		t.Fatalf("As failed to recover the typed error, got %v", typed)
	}
	if !IsCode(wrapped, CodeAlreadyProcessed) {
		t.Fatalf("IsCode should see through wrapping")
	}
}

func TestWithDetailsRoundTrip(t *testing.T) {
	details := InsufficientStockDetails{ProductID: "p1", LocationID: "l1", Requested: 4, Available: 1}
	err := New(CodeInsufficientStock, "not enough stock").WithDetails(details)

	got, ok := err.Details().(InsufficientStockDetails)
	if !ok {
		t.Fatalf("details type lost: %T", err.Details())
	}
	if got.Requested != 4 || got.Available != 1 {
		t.Fatalf("unexpected details: %+v", got)
	}
}
