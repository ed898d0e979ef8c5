package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/storebot/storefront-backend/api/responses"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

const (
	userIDHeader  = "X-User-Id"
	adminIDHeader = "X-Admin-Id"
)

type actorKey string

const (
	userIDKey  actorKey = "user_id"
	adminIDKey actorKey = "admin_id"
)

// Allowlist reports whether an admin id may act.
type Allowlist interface {
	IsAllowed(adminID int64) bool
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// AdminID returns the authenticated admin id stored by RequireAdmin.
func AdminID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminIDKey).(int64)
	return id, ok
}

// RequireUser extracts the caller's user id from the X-User-Id header. The
// upstream chat dispatcher authenticates the user; this boundary trusts the
// forwarded id.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := parseActorHeader(r, userIDHeader)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, id)
			if logg != nil {
				ctx = logg.WithUserID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin extracts the admin id from X-Admin-Id and checks it against
// the configured allowlist.
func RequireAdmin(logg *logger.Logger, allow Allowlist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := parseActorHeader(r, adminIDHeader)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if allow == nil || !allow.IsAllowed(id) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "access denied"))
				return
			}
			ctx := context.WithValue(r.Context(), adminIDKey, id)
			if logg != nil {
				ctx = logg.WithAdminID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseActorHeader(r *http.Request, header string) (int64, error) {
	raw := r.Header.Get(header)
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid identity header")
	}
	return id, nil
}
