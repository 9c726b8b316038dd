package models

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

// User is the profile document linked to a backend account.
type User struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// Session is an opaque token representing one authenticated login.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VideoPost is a published short video.
type VideoPost struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail"`
	VideoURL     string    `json:"video"`
	Prompt       string    `json:"prompt"`
	Creator      string    `json:"creator"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AssetKind tags an upload as an image or a video.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// UploadAsset describes a local binary for the duration of one upload.
type UploadAsset struct {
	Name     string    `json:"name"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
	URI      string    `json:"uri"`
	Kind     AssetKind `json:"kind"`

	// Opener overrides reading from URI, e.g. for multipart request bodies.
	Opener func() (io.ReadCloser, error) `json:"-"`
}

// Open returns the asset content.
func (a UploadAsset) Open() (io.ReadCloser, error) {
	if a.Opener != nil {
		return a.Opener()
	}
	path := strings.TrimPrefix(a.URI, "file://")
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("upload asset has no location")
	}
	return os.Open(path)
}

// DeletionRequest carries the identity of the user asking for account deletion.
type DeletionRequest struct {
	UserID    string
	AccountID string
	Email     string
	Username  string
}

// DeletionRequestFor captures the identity fields of u.
func DeletionRequestFor(u User) DeletionRequest {
	return DeletionRequest{
		UserID:    u.ID,
		AccountID: u.AccountID,
		Email:     u.Email,
		Username:  u.Username,
	}
}
