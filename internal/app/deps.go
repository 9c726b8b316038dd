package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidfriends/appcore/internal/auth"
	"github.com/vidfriends/appcore/internal/config"
	"github.com/vidfriends/appcore/internal/content"
	"github.com/vidfriends/appcore/internal/db"
	"github.com/vidfriends/appcore/internal/deletion"
	"github.com/vidfriends/appcore/internal/gateway"
	"github.com/vidfriends/appcore/internal/handlers"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/mail"
	"github.com/vidfriends/appcore/internal/media"
	"github.com/vidfriends/appcore/internal/middleware"
	"github.com/vidfriends/appcore/internal/repositories"
	"github.com/vidfriends/appcore/internal/storage"
)

// services holds the app core wired for one process.
type services struct {
	gateway  *gateway.Remote
	sessions *auth.Manager
	state    *auth.State
	pipeline *media.Pipeline
	content  *content.Repository
	deletion *deletion.Workflow
	limiter  *middleware.KeyedRateLimiter
}

// buildServices wires stores, the gateway and the app core services from cfg.
// pool may be nil unless a postgres-backed store is selected. open receives
// mailto: links when the mailto driver is configured.
func buildServices(ctx context.Context, cfg config.Config, pool db.Pool, open mail.Opener) (*services, error) {
	accounts, sessions, err := identityStores(cfg, pool)
	if err != nil {
		return nil, err
	}
	documents, err := documentStore(ctx, cfg, pool)
	if err != nil {
		return nil, err
	}
	objects, err := objectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	composer, err := newComposer(cfg.Mail, open)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewRemote(accounts, sessions, documents, objects, cfg.SessionTTL)
	manager := auth.NewManager(gw, auth.Options{
		UsersCollection: cfg.Collections.Users,
		AvatarsBaseURL:  cfg.AvatarsURL,
	})
	pipeline := media.NewPipeline(gw, cfg.Collections.Storage, media.WithCleanup(cfg.CleanupOrphanedUp))
	state := &auth.State{}

	workflow := deletion.NewWorkflow(deletion.Dependencies{
		Composer:  composer,
		Session:   manager,
		State:     state,
		Navigator: logNavigator{},
		Alerter:   logAlerter{},
	}, deletion.Config{AdminEmail: cfg.Deletion.AdminEmail, Subject: cfg.Deletion.Subject})

	return &services{
		gateway:  gw,
		sessions: manager,
		state:    state,
		pipeline: pipeline,
		content:  content.NewRepository(gw, pipeline, cfg.Collections.Videos),
		deletion: workflow,
		limiter:  middleware.NewAuthRateLimiter(cfg.AuthRateLimit),
	}, nil
}

// handlerDependencies exposes s to the HTTP facade.
func (s *services) handlerDependencies(cfg config.Config, checks map[string]handlers.HealthCheck) handlers.Dependencies {
	return handlers.Dependencies{
		Sessions:       s.sessions,
		State:          s.state,
		Content:        s.content,
		Previews:       s.pipeline,
		Deletion:       s.deletion,
		AuthLimiter:    s.limiter,
		HealthChecks:   checks,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
}

var errPoolRequired = errors.New("postgres backend selected but no database pool is available")

func identityStores(cfg config.Config, pool db.Pool) (repositories.AccountStore, repositories.SessionStore, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if pool == nil {
			return nil, nil, errPoolRequired
		}
		return repositories.NewPostgresAccountStore(pool), repositories.NewPostgresSessionStore(pool), nil
	case config.BackendMemory, "":
		return repositories.NewInMemoryAccountStore(), repositories.NewInMemorySessionStore(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func documentStore(ctx context.Context, cfg config.Config, pool db.Pool) (repositories.DocumentStore, error) {
	switch cfg.DocumentStore {
	case config.DocumentStorePostgres:
		if pool == nil {
			return nil, errPoolRequired
		}
		return repositories.NewPostgresDocumentStore(pool), nil
	case config.DocumentStoreDynamoDB:
		store, err := repositories.NewDynamoDBDocumentStore(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DocumentStoreMemory, "":
		return repositories.NewInMemoryDocumentStore(), nil
	default:
		return nil, fmt.Errorf("unsupported document store %q", cfg.DocumentStore)
	}
}

func objectStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreS3:
		store, err := storage.NewS3Storage(ctx, cfg.Objects)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ObjectStoreMemory, "":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported object store %q", cfg.ObjectStore)
	}
}

func newComposer(cfg config.MailConfig, open mail.Opener) (deletion.Composer, error) {
	switch cfg.Driver {
	case config.MailDriverMailgun:
		return mail.NewMailgunComposer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), nil
	case config.MailDriverMailto, "":
		return mail.MailtoComposer{Open: open}, nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

// logNavigator records the return to sign-in; the HTTP facade reports it as a redirect.
type logNavigator struct{}

func (logNavigator) ToSignIn(ctx context.Context) {
	logging.FromContext(ctx).Info("navigating to sign in", "path", handlers.SignInPath)
}

type logAlerter struct{}

func (logAlerter) Alert(ctx context.Context, title, message string) {
	logging.FromContext(ctx).Warn("user alert", "title", title, "message", message)
}
