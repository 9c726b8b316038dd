package handlers

import (
	"net/http"
	"strings"

	"github.com/vidfriends/appcore/internal/models"
)

// FileHandler resolves display URLs of stored files.
type FileHandler struct {
	Previews PreviewResolver
}

// Preview handles GET /api/v1/files/preview?id=&kind=.
func (h FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "id is required"})
		return
	}

	u, err := h.Previews.FilePreview(ctx, id, models.AssetKind(r.URL.Query().Get("kind")))
	if err != nil {
		respondError(ctx, w, err, "failed to resolve file url")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"url": u})
}
