package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidfriends/appcore/internal/content"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
)

const multipartMemory = 32 << 20

// VideoHandler provides endpoints for listing, searching and publishing videos.
type VideoHandler struct {
	Content        ContentService
	Sessions       SessionService
	MaxUploadBytes int64
}

// Collection handles GET and POST /api/v1/videos.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		posts []models.VideoPost
		err   error
	)
	if creator := strings.TrimSpace(r.URL.Query().Get("creator")); creator != "" {
		posts, err = h.Content.ListByCreator(ctx, creator)
	} else {
		posts, err = h.Content.ListAll(ctx)
	}
	if err != nil {
		respondError(ctx, w, err, "failed to list videos")
		return
	}
	respondJSON(ctx, w, http.StatusOK, videosResponse{Videos: posts})
}

// Latest handles GET /api/v1/videos/latest.
func (h VideoHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	posts, err := h.Content.ListLatest(ctx, limit)
	if err != nil {
		respondError(ctx, w, err, "failed to list latest videos")
		return
	}
	respondJSON(ctx, w, http.StatusOK, videosResponse{Videos: posts})
}

// Search handles GET /api/v1/videos/search.
func (h VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	posts, err := h.Content.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		respondError(ctx, w, err, "failed to search videos")
		return
	}
	respondJSON(ctx, w, http.StatusOK, videosResponse{Videos: posts})
}

func (h VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.Sessions.CurrentUser(ctx)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	ctx = logging.With(ctx, "accountId", user.AccountID)
	logger := logging.FromContext(ctx)

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		logger.Warn("invalid video upload payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid multipart body"})
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	form := content.Form{
		Title:     strings.TrimSpace(r.FormValue("title")),
		Prompt:    strings.TrimSpace(r.FormValue("prompt")),
		Creator:   user.AccountID,
		Thumbnail: formAsset(r, "thumbnail", models.AssetKindImage),
		Video:     formAsset(r, "video", models.AssetKindVideo),
	}

	post, err := h.Content.Create(ctx, form)
	if err != nil {
		respondError(ctx, w, err, "failed to create video")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, videoResponse{Video: post})
}

// formAsset returns nil when the part is missing so presence validation reports it.
func formAsset(r *http.Request, field string, kind models.AssetKind) *models.UploadAsset {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	fh := headers[0]
	return &models.UploadAsset{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		URI:      "multipart://" + field,
		Kind:     kind,
		Opener:   func() (io.ReadCloser, error) { return fh.Open() },
	}
}

type videosResponse struct {
	Videos []models.VideoPost `json:"videos"`
}

type videoResponse struct {
	Video *models.VideoPost `json:"video"`
}
