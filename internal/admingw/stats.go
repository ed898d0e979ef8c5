package admingw

import (
	"context"
	"fmt"

	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
)

// Stats is the read-only summary shown on the admin dashboard.
type Stats struct {
	Users    int64 `json:"users"`
	Orders   int64 `json:"orders"`
	Products int64 `json:"products"`
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type productCounter interface {
	CountProducts(ctx context.Context) (int64, error)
}

// StatsReader aggregates entity counts for the admin stats view.
type StatsReader struct {
	users    counter
	orders   counter
	products productCounter
}

// NewStatsReader builds the stats aggregate over the entity repositories.
func NewStatsReader(users, orders counter, products productCounter) (*StatsReader, error) {
	if users == nil || orders == nil || products == nil {
		return nil, fmt.Errorf("all counters required")
	}
	return &StatsReader{users: users, orders: orders, products: products}, nil
}

// Read collects the current counts.
func (s *StatsReader) Read(ctx context.Context) (*Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count users")
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count orders")
	}
	products, err := s.products.CountProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count products")
	}
	return &Stats{Users: users, Orders: orders, Products: products}, nil
}
