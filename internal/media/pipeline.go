// Package media stores binary assets and resolves the URLs clients display.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
)

// ImagePreview is the rendering used for image assets.
var ImagePreview = backend.PreviewOptions{
	Width:   2000,
	Height:  2000,
	Gravity: backend.GravityTop,
	Quality: 100,
}

// Pipeline uploads assets into one storage bucket.
type Pipeline struct {
	gateway backend.Gateway
	bucket  string
	cleanup bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithCleanup toggles deleting already stored files when a paired upload fails.
func WithCleanup(enabled bool) Option {
	return func(p *Pipeline) {
		p.cleanup = enabled
	}
}

// NewPipeline constructs a Pipeline storing files in bucket.
func NewPipeline(gateway backend.Gateway, bucket string, opts ...Option) *Pipeline {
	if gateway == nil {
		panic("media: gateway must not be nil")
	}
	p := &Pipeline{gateway: gateway, bucket: bucket, cleanup: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// UploadFile stores asset and returns its display URL. A nil asset is a no-op
// returning an empty URL.
func (p *Pipeline) UploadFile(ctx context.Context, asset *models.UploadAsset) (string, error) {
	_, u, err := p.upload(ctx, asset)
	return u, err
}

// upload also reports the stored file id, which is set whenever the file was written.
func (p *Pipeline) upload(ctx context.Context, asset *models.UploadAsset) (string, string, error) {
	if asset == nil {
		return "", "", nil
	}

	ctx, span := logging.StartSpan(ctx, "media.upload")
	defer span.End()

	file, err := p.gateway.CreateFile(ctx, p.bucket, uuid.NewString(), *asset)
	if err != nil {
		return "", "", apperr.Wrap(apperr.ErrUpload, "store "+asset.Name, err)
	}

	u, err := p.FilePreview(ctx, file.ID, asset.Kind)
	if err != nil {
		return file.ID, "", err
	}
	return file.ID, u, nil
}

// FilePreview returns a direct view URL for videos and a top-anchored 2000x2000
// full-quality preview for images.
func (p *Pipeline) FilePreview(ctx context.Context, fileID string, kind models.AssetKind) (string, error) {
	var (
		u   string
		err error
	)
	switch kind {
	case models.AssetKindVideo:
		u, err = p.gateway.GetFileView(ctx, p.bucket, fileID)
	case models.AssetKindImage:
		u, err = p.gateway.GetFilePreview(ctx, p.bucket, fileID, ImagePreview)
	default:
		return "", apperr.Wrap(apperr.ErrInvalidAssetKind, "file preview", fmt.Errorf("kind %q", kind))
	}

	if err != nil {
		return "", apperr.Wrap(apperr.ErrPreviewResolution, "file preview", err)
	}
	if u == "" {
		return "", apperr.Wrap(apperr.ErrPreviewResolution, "file preview", errors.New("backend returned no url for "+fileID))
	}
	return u, nil
}

// UploadPair uploads the thumbnail and the video concurrently and returns both URLs
// once both have completed. When either fails, files already stored are deleted on a
// best-effort basis if cleanup is enabled.
func (p *Pipeline) UploadPair(ctx context.Context, thumbnail, video *models.UploadAsset) (string, string, error) {
	ctx, span := logging.StartSpan(ctx, "media.upload_pair")
	defer span.End()

	var (
		g                  errgroup.Group
		thumbID, videoID   string
		thumbURL, videoURL string
	)
	g.Go(func() error {
		var err error
		thumbID, thumbURL, err = p.upload(ctx, thumbnail)
		return err
	})
	g.Go(func() error {
		var err error
		videoID, videoURL, err = p.upload(ctx, video)
		return err
	})

	if err := g.Wait(); err != nil {
		span.Fail(err)
		if p.cleanup {
			p.discard(ctx, thumbID, videoID)
		}
		return "", "", err
	}
	return thumbURL, videoURL, nil
}

func (p *Pipeline) discard(ctx context.Context, fileIDs ...string) {
	logger := logging.FromContext(ctx)
	for _, id := range fileIDs {
		if id == "" {
			continue
		}
		if err := p.gateway.DeleteFile(ctx, p.bucket, id); err != nil {
			logger.Warn("orphaned upload cleanup failed", "fileId", id, "error", err)
			continue
		}
		logger.Info("orphaned upload removed", "fileId", id)
	}
}
