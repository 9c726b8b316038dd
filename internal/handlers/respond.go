package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/deletion"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/validation"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// respondError maps an app core failure to a status code and a client-safe message.
func respondError(ctx context.Context, w http.ResponseWriter, err error, message string) {
	logging.FromContext(ctx).Warn(message, "error", err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: message, Details: validation.Details(verrs)})
		return
	}
	respondJSON(ctx, w, statusFor(err), errorResponse{Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, backend.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, backend.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, deletion.ErrInvalidTransition):
		return http.StatusConflict
	}

	switch apperr.KindOf(err) {
	case apperr.ErrAuthentication:
		return http.StatusUnauthorized
	case apperr.ErrSession:
		return http.StatusConflict
	case apperr.ErrInvalidAssetKind:
		return http.StatusBadRequest
	case apperr.ErrQuery, apperr.ErrUpload, apperr.ErrCreation, apperr.ErrRegistration,
		apperr.ErrPreviewResolution, apperr.ErrDeletionRequest:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
