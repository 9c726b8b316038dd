// Package storage holds the object stores backing uploaded media files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidfriends/appcore/internal/backend"
)

// ErrObjectNotFound indicates no object is stored under the requested key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore persists binaries grouped by logical bucket and resolves URLs for them.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, bucket, key string) error
	ViewURL(ctx context.Context, bucket, key string) (string, error)
	// PreviewURL returns an empty string when the store cannot render previews.
	PreviewURL(ctx context.Context, bucket, key string, opts backend.PreviewOptions) (string, error)
}

func objectKey(bucket, key string) (string, error) {
	bucket = strings.Trim(bucket, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return "", fmt.Errorf("storage: bucket and key are required")
	}
	return bucket + "/" + key, nil
}

func previewQuery(opts backend.PreviewOptions) string {
	q := url.Values{}
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		q.Set("gravity", string(opts.Gravity))
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}
	return q.Encode()
}
