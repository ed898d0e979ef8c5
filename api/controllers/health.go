package controllers

import (
	"context"
	"net/http"

	"github.com/storebot/storefront-backend/api/responses"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports readiness, including database reachability.
func Healthz(db pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodePersistence, err, "database unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
