package controllers

import (
	"net/http"

	"github.com/storebot/storefront-backend/api/middleware"
	"github.com/storebot/storefront-backend/api/responses"
	"github.com/storebot/storefront-backend/api/validators"
	usersvc "github.com/storebot/storefront-backend/internal/users"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/logger"
)

type userSyncRequest struct {
	LanguageCode string `json:"language_code" validate:"omitempty,max=5"`
}

type userResponse struct {
	TelegramID   int64  `json:"telegram_id"`
	LanguageCode string `json:"language_code"`
	IsBlocked    bool   `json:"is_blocked"`
}

// UserSync registers the caller on first contact and returns the stored
// record. Subsequent calls are read-only.
func UserSync(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload userSyncRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		user, err := svc.GetOrCreate(r.Context(), userID, payload.LanguageCode)
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
