package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
)

// User document field names.
const (
	FieldAccountID = "accountId"
	FieldEmail     = "email"
	FieldUsername  = "username"
	FieldAvatar    = "avatar"
)

// Options configures a Manager.
type Options struct {
	UsersCollection string
	AvatarsBaseURL  string
	Orphans         OrphanRecorder
}

// Manager signs users up, in and out against the backend gateway.
type Manager struct {
	gateway     backend.Gateway
	users       string
	avatarsBase string
	orphans     OrphanRecorder
}

// NewManager constructs a Manager that talks to the provided gateway.
func NewManager(gateway backend.Gateway, opts Options) *Manager {
	if gateway == nil {
		panic("auth: gateway must not be nil")
	}
	users := opts.UsersCollection
	if users == "" {
		users = "users"
	}
	orphans := opts.Orphans
	if orphans == nil {
		orphans = LogOrphans{}
	}
	return &Manager{
		gateway:     gateway,
		users:       users,
		avatarsBase: strings.TrimSuffix(opts.AvatarsBaseURL, "/"),
		orphans:     orphans,
	}
}

// CreateUser registers an account, signs it in and writes its profile document.
// A partially created account is reported to the orphan recorder, not rolled back.
func (m *Manager) CreateUser(ctx context.Context, email, password, username string) (*models.User, error) {
	ctx, span := logging.StartSpan(ctx, "auth.create_user")
	defer span.End()
	logger := logging.FromContext(ctx)

	account, err := m.gateway.CreateAccount(ctx, uuid.NewString(), email, password, username)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrRegistration, "create account", err)
	}
	if account.ID == "" {
		return nil, apperr.Wrap(apperr.ErrRegistration, "create account", errors.New("backend returned no account id"))
	}

	avatar := InitialsAvatarURL(m.avatarsBase, username)

	if _, err := m.SignIn(ctx, email, password); err != nil {
		m.orphans.RecordOrphan(ctx, account.ID, err)
		return nil, err
	}

	doc, err := m.gateway.CreateDocument(ctx, m.users, uuid.NewString(), map[string]string{
		FieldAccountID: account.ID,
		FieldEmail:     email,
		FieldUsername:  username,
		FieldAvatar:    avatar,
	})
	if err != nil {
		m.orphans.RecordOrphan(ctx, account.ID, err)
		return nil, apperr.Wrap(apperr.ErrRegistration, "create user document", err)
	}

	user := userFromDocument(doc)
	logger.Info("user registered", "accountId", user.AccountID, "userId", user.ID)
	return &user, nil
}

// SignIn exchanges credentials for a session that becomes the current one.
func (m *Manager) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	ctx, span := logging.StartSpan(ctx, "auth.sign_in")
	defer span.End()

	session, err := m.gateway.CreateSession(ctx, email, password)
	if err != nil {
		logging.FromContext(ctx).Warn("sign in failed", "error", err)
		return models.Session{}, apperr.Wrap(apperr.ErrAuthentication, "sign in", err)
	}
	return session, nil
}

// SignOut destroys the current session.
func (m *Manager) SignOut(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "auth.sign_out")
	defer span.End()

	if err := m.gateway.DeleteSession(ctx, backend.CurrentSession); err != nil {
		return apperr.Wrap(apperr.ErrSession, "sign out", err)
	}
	return nil
}

// Logout signs out and then forgets the signed-in user held in state.
func (m *Manager) Logout(ctx context.Context, state *State) error {
	if err := m.SignOut(ctx); err != nil {
		return err
	}
	if state != nil {
		state.Clear()
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil. Lookup failures are logged and
// reported as nil as well.
func (m *Manager) CurrentUser(ctx context.Context) *models.User {
	user, err := m.LookupCurrentUser(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("current user lookup failed", "error", err)
		return nil
	}
	return user
}

// LookupCurrentUser returns (nil, nil) when nobody is signed in or the account has no
// profile document, and a non-nil error only when the backend call itself failed.
func (m *Manager) LookupCurrentUser(ctx context.Context) (*models.User, error) {
	ctx, span := logging.StartSpan(ctx, "auth.current_user")
	defer span.End()

	account, err := m.gateway.GetAccount(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrNoSession) || errors.Is(err, backend.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.ErrSession, "get account", err)
	}
	if account.ID == "" {
		return nil, nil
	}

	list, err := m.gateway.ListDocuments(ctx, m.users, backend.Equal(FieldAccountID, account.ID), backend.Limit(1))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrQuery, "find user document", err)
	}
	if list == nil || len(list.Documents) == 0 {
		return nil, nil
	}

	user := userFromDocument(list.Documents[0])
	return &user, nil
}

// InitialsAvatarURL derives the avatar image URL for username.
func InitialsAvatarURL(base, username string) string {
	return strings.TrimSuffix(base, "/") + "/avatars/initials?name=" + url.QueryEscape(username)
}

func userFromDocument(doc backend.Document) models.User {
	return models.User{
		ID:        doc.ID,
		AccountID: doc.Fields[FieldAccountID],
		Email:     doc.Fields[FieldEmail],
		Username:  doc.Fields[FieldUsername],
		AvatarURL: doc.Fields[FieldAvatar],
	}
}
