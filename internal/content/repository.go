// Package content lists, searches and publishes video posts.
package content

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
	"github.com/vidfriends/appcore/internal/validation"
)

// DefaultLatestLimit is the page size of ListLatest when none is given.
const DefaultLatestLimit = 7

// Video document field names.
const (
	FieldTitle     = "title"
	FieldThumbnail = "thumbnail"
	FieldVideo     = "video"
	FieldPrompt    = "prompt"
	FieldCreator   = "creator"
)

// Uploader stores a thumbnail/video pair and returns their display URLs.
type Uploader interface {
	UploadPair(ctx context.Context, thumbnail, video *models.UploadAsset) (string, string, error)
}

// Form is the input of Create.
type Form struct {
	Title     string              `json:"title" validate:"required"`
	Prompt    string              `json:"prompt" validate:"required"`
	Creator   string              `json:"creator" validate:"required"`
	Thumbnail *models.UploadAsset `json:"thumbnail" validate:"required"`
	Video     *models.UploadAsset `json:"video" validate:"required"`
}

// Repository reads and writes video post documents.
type Repository struct {
	gateway  backend.Gateway
	uploader Uploader
	videos   string
	validate *validator.Validate
}

// NewRepository constructs a Repository over the videos collection.
func NewRepository(gateway backend.Gateway, uploader Uploader, videosCollection string) *Repository {
	if gateway == nil || uploader == nil {
		panic("content: gateway and uploader must not be nil")
	}
	if videosCollection == "" {
		videosCollection = "videos"
	}
	return &Repository{
		gateway:  gateway,
		uploader: uploader,
		videos:   videosCollection,
		validate: validation.New(),
	}
}

// ListAll returns every post, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.VideoPost, error) {
	return r.list(ctx, "list all", backend.OrderDesc(backend.CreatedAtField))
}

// ListLatest returns the newest limit posts. A non-positive limit uses DefaultLatestLimit.
func (r *Repository) ListLatest(ctx context.Context, limit int) ([]models.VideoPost, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return r.list(ctx, "list latest", backend.OrderDesc(backend.CreatedAtField), backend.Limit(limit))
}

// ListByCreator returns the posts of one creator, newest first.
func (r *Repository) ListByCreator(ctx context.Context, userID string) ([]models.VideoPost, error) {
	return r.list(ctx, "list by creator", backend.Equal(FieldCreator, userID), backend.OrderDesc(backend.CreatedAtField))
}

// Search matches query against post titles. An empty query yields no posts.
func (r *Repository) Search(ctx context.Context, query string) ([]models.VideoPost, error) {
	return r.list(ctx, "search", backend.Search(FieldTitle, query))
}

func (r *Repository) list(ctx context.Context, op string, queries ...backend.Query) ([]models.VideoPost, error) {
	ctx, span := logging.StartSpan(ctx, "content."+op)
	defer span.End()

	list, err := r.gateway.ListDocuments(ctx, r.videos, queries...)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrQuery, op, err)
	}
	if list == nil {
		return nil, apperr.Wrap(apperr.ErrQuery, op, errors.New("backend returned no result"))
	}

	posts := make([]models.VideoPost, 0, len(list.Documents))
	for _, doc := range list.Documents {
		posts = append(posts, postFromDocument(doc))
	}
	return posts, nil
}

// Create uploads the form's media and then writes the post document. No document is
// written unless both URLs resolved.
func (r *Repository) Create(ctx context.Context, form Form) (_ *models.VideoPost, err error) {
	ctx, span := logging.StartSpan(ctx, "content.create")
	defer func() {
		span.Fail(err)
		span.End()
	}()

	if err := r.validate.Struct(form); err != nil {
		return nil, apperr.Wrap(apperr.ErrCreation, "validate form", err)
	}

	thumbnail, video, err := r.uploader.UploadPair(ctx, form.Thumbnail, form.Video)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCreation, "upload media", err)
	}
	if thumbnail == "" || video == "" {
		return nil, apperr.Wrap(apperr.ErrCreation, "upload media", errors.New("media urls did not resolve"))
	}

	doc, err := r.gateway.CreateDocument(ctx, r.videos, uuid.NewString(), map[string]string{
		FieldTitle:     form.Title,
		FieldThumbnail: thumbnail,
		FieldVideo:     video,
		FieldPrompt:    form.Prompt,
		FieldCreator:   form.Creator,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCreation, "create video document", err)
	}

	post := postFromDocument(doc)
	logging.FromContext(ctx).Info("video post created", "videoId", post.ID, "creator", post.Creator)
	return &post, nil
}

func postFromDocument(doc backend.Document) models.VideoPost {
	return models.VideoPost{
		ID:           doc.ID,
		Title:        doc.Fields[FieldTitle],
		ThumbnailURL: doc.Fields[FieldThumbnail],
		VideoURL:     doc.Fields[FieldVideo],
		Prompt:       doc.Fields[FieldPrompt],
		Creator:      doc.Fields[FieldCreator],
		CreatedAt:    doc.CreatedAt,
	}
}
