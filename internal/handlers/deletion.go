package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/deletion"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/mail"
)

// DeletionHandler exposes the account deletion flow.
type DeletionHandler struct {
	Flow     DeletionFlow
	Sessions SessionService
}

// Handle implements GET and POST /api/v1/account/deletion.
func (h DeletionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(r.Context(), w, http.StatusOK, h.view(""))
	case http.MethodPost:
		h.choose(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h DeletionHandler) choose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req deletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid deletion payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	in, err := deletion.ParseInput(req.Input)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if in == deletion.InputBegin {
		user := h.Sessions.CurrentUser(ctx)
		if user == nil {
			respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
			return
		}
		_, err = h.Flow.Start(ctx, user)
	} else {
		_, err = h.Flow.Choose(ctx, in)
	}

	if err != nil {
		if errors.Is(err, apperr.ErrDeletionRequest) {
			logger.Error("deletion request failed", "error", err)
			respondJSON(ctx, w, http.StatusBadGateway, h.view(deletion.FailureAlert))
			return
		}
		respondError(ctx, w, err, "deletion step failed")
		return
	}
	respondJSON(ctx, w, http.StatusOK, h.view(""))
}

func (h DeletionHandler) view(alert string) deletionResponse {
	state := h.Flow.State()
	resp := deletionResponse{State: state, Alert: alert}
	if dialog, ok := deletion.DialogFor(state); ok {
		resp.Dialog = &dialog
	}
	if draft, ok := h.Flow.LastDraft(); ok && !state.Terminal() {
		resp.Mailto = mail.MailtoURL(draft)
	}
	if state == deletion.StateLoggedOut {
		resp.Redirect = SignInPath
	}
	return resp
}

type deletionRequest struct {
	Input string `json:"input"`
}

type deletionResponse struct {
	State    deletion.State   `json:"state"`
	Dialog   *deletion.Dialog `json:"dialog,omitempty"`
	Mailto   string           `json:"mailto,omitempty"`
	Alert    string           `json:"alert,omitempty"`
	Redirect string           `json:"redirect,omitempty"`
}
