package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

const timeoutReason = "automatically rejected: approval window expired"

type pendingLister interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type orderRejecter interface {
	Reject(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// OrderTimeoutJob terminates orders that sat in pending approval beyond the
// configured horizon. It runs the same pending-terminal transition an admin
// reject performs, so stock comes back through the one compensating restore.
type OrderTimeoutJob struct {
	repo    pendingLister
	orders  orderRejecter
	log     *logger.Logger
	horizon time.Duration
	now     func() time.Time
}

// OrderTimeoutJobParams configure the timeout job.
type OrderTimeoutJobParams struct {
	Repo    pendingLister
	Orders  orderRejecter
	Logger  *logger.Logger
	Horizon time.Duration
	Now     func() time.Time
}

// NewOrderTimeoutJob builds the job.
func NewOrderTimeoutJob(params OrderTimeoutJobParams) (*OrderTimeoutJob, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &OrderTimeoutJob{
		repo:    params.Repo,
		orders:  params.Orders,
		log:     params.Logger,
		horizon: params.Horizon,
		now:     now,
	}, nil
}

// Name implements Job.
func (j *OrderTimeoutJob) Name() string { return "order_timeout" }

// Run rejects every stale pending order, continuing past individual failures.
// Orders an admin decided on between the scan and the transition surface as
// ALREADY_PROCESSED and are skipped without error.
func (j *OrderTimeoutJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.horizon)
	ids, err := j.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale pending orders: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	var errs error
	expired := 0
	for _, id := range ids {
		if _, err := j.orders.Reject(ctx, id, timeoutReason); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeAlreadyProcessed) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("reject order %s: %w", id, err))
			continue
		}
		expired++
	}

	logCtx := j.log.WithField(ctx, "expired", expired)
	logCtx = j.log.WithField(logCtx, "scanned", len(ids))
	j.log.Info(logCtx, "stale pending orders rejected")
	return errs
}
