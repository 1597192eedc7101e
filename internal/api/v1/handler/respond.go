package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/middleware"
	"creatorhub/internal/service"

	"github.com/rs/zerolog"
)

const tryAgainMessage = "Something went wrong while generating your content. Please try again."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
	}
	return userID, ok
}

// writeServiceError maps service errors to status codes. Quota and validation
// failures carry their reason; anything else gets an opaque message.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var quotaErr *service.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		writeJSON(w, http.StatusForbidden, dto.QuotaErrorDTO{Detail: dto.QuotaErrorDetailDTO{
			Message:         quotaErr.Message(),
			CurrentPlan:     quotaErr.Plan.Upper(),
			UpgradeRequired: quotaErr.UpgradeRequired(),
		}})
	case errors.Is(err, service.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrContentNotFound):
		http.Error(w, "Content not found", http.StatusNotFound)
	case errors.Is(err, service.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("Request failed")
		http.Error(w, tryAgainMessage, http.StatusInternalServerError)
	}
}
