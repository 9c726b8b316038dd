package handlers

import (
	"context"

	"github.com/vidfriends/appcore/internal/auth"
	"github.com/vidfriends/appcore/internal/content"
	"github.com/vidfriends/appcore/internal/deletion"
	"github.com/vidfriends/appcore/internal/models"
)

// SessionService signs users up, in and out.
type SessionService interface {
	CreateUser(ctx context.Context, email, password, username string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context, state *auth.State) error
	CurrentUser(ctx context.Context) *models.User
	LookupCurrentUser(ctx context.Context) (*models.User, error)
}

// ContentService lists, searches and publishes video posts.
type ContentService interface {
	ListAll(ctx context.Context) ([]models.VideoPost, error)
	ListLatest(ctx context.Context, limit int) ([]models.VideoPost, error)
	ListByCreator(ctx context.Context, userID string) ([]models.VideoPost, error)
	Search(ctx context.Context, query string) ([]models.VideoPost, error)
	Create(ctx context.Context, form content.Form) (*models.VideoPost, error)
}

// PreviewResolver derives display URLs for stored files.
type PreviewResolver interface {
	FilePreview(ctx context.Context, fileID string, kind models.AssetKind) (string, error)
}

// DeletionFlow is the account deletion confirmation flow.
type DeletionFlow interface {
	Start(ctx context.Context, user *models.User) (deletion.State, error)
	Choose(ctx context.Context, in deletion.Input) (deletion.State, error)
	State() deletion.State
	LastDraft() (deletion.Draft, bool)
}
