package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storebot/storefront-backend/api/responses"
	"github.com/storebot/storefront-backend/api/validators"
	"github.com/storebot/storefront-backend/internal/admingw"
	usersvc "github.com/storebot/storefront-backend/internal/users"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
	"github.com/storebot/storefront-backend/pkg/pagination"
)

// AdminUserBlock blocks a user from mutating carts and creating orders.
func AdminUserBlock(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setBlockedHandler(svc, logg, true)
}

// AdminUserUnblock lifts a block.
func AdminUserUnblock(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setBlockedHandler(svc, logg, false)
}

func setBlockedHandler(svc usersvc.Service, logg *logger.Logger, blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || userID <= 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "user id must be a positive integer"))
			return
		}

		if blocked {
			err = svc.Block(r.Context(), userID)
		} else {
			err = svc.Unblock(r.Context(), userID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"user_id": userID,
			"blocked": blocked,
		})
	}
}

// AdminUserList returns a page of registered users, newest first.
func AdminUserList(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, int(^uint(0)>>1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), pagination.Params{Limit: limit, Offset: offset})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]userResponse, 0, len(page.Items))
		for i := range page.Items {
			user := &page.Items[i]
			items = append(items, userResponse{
				TelegramID:   user.TelegramID,
				LanguageCode: user.LanguageCode,
				IsBlocked:    user.IsBlocked,
			})
		}
		responses.WriteSuccess(w, map[string]any{
			"items": items,
			"total": page.Total,
		})
	}
}

// AdminUserGet returns one user record.
func AdminUserGet(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || userID <= 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "user id must be a positive integer"))
			return
		}

		user, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, userResponse{
			TelegramID:   user.TelegramID,
			LanguageCode: user.LanguageCode,
			IsBlocked:    user.IsBlocked,
		})
	}
}

// AdminStats returns entity counts for the dashboard.
func AdminStats(stats *admingw.StatsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := stats.Read(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
