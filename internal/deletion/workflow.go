package deletion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
)

// Composer opens a drafting surface for an email. Returning does not mean the email was sent.
type Composer interface {
	Compose(ctx context.Context, draft Draft) error
}

// SignOuter destroys the current session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// SessionState forgets the signed-in user.
type SessionState interface {
	Clear()
}

// Navigator moves the UI to the sign-in entry point.
type Navigator interface {
	ToSignIn(ctx context.Context)
}

// Alerter shows a one-off message to the user.
type Alerter interface {
	Alert(ctx context.Context, title, message string)
}

// Dependencies are the collaborators a Workflow drives. Navigator and Alerter are optional.
type Dependencies struct {
	Composer  Composer
	Session   SignOuter
	State     SessionState
	Navigator Navigator
	Alerter   Alerter
}

// Config fixes the recipient and subject of the request email.
type Config struct {
	AdminEmail string
	Subject    string
}

// Workflow runs one deletion request at a time. Each step waits for an explicit choice.
type Workflow struct {
	deps Dependencies
	cfg  Config

	mu      sync.Mutex
	state   State
	request models.DeletionRequest
	draft   *Draft
}

// NewWorkflow constructs an idle Workflow.
func NewWorkflow(deps Dependencies, cfg Config) *Workflow {
	if deps.Composer == nil || deps.Session == nil || deps.State == nil {
		panic("deletion: composer, session and state are required")
	}
	if cfg.Subject == "" {
		cfg.Subject = "Account Deletion Request"
	}
	return &Workflow{deps: deps, cfg: cfg, state: StateIdle}
}

// State reports the current step.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastDraft returns the most recently composed email of this run.
func (w *Workflow) LastDraft() (Draft, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft == nil {
		return Draft{}, false
	}
	return *w.draft, true
}

// Start asks the user to confirm deleting the account of user.
func (w *Workflow) Start(ctx context.Context, user *models.User) (State, error) {
	if user == nil {
		return w.State(), apperr.Wrap(apperr.ErrDeletionRequest, "start", errors.New("no signed in user"))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	next, _, err := Transition(w.state, InputBegin)
	if err != nil {
		return w.state, err
	}
	w.request = models.DeletionRequestFor(*user)
	w.draft = nil
	w.state = next

	logging.FromContext(ctx).Info("account deletion started", "state", next, "accountId", user.AccountID)
	return w.state, nil
}

// Choose applies the user's choice and performs its side effect. When drafting the
// email fails the user is alerted once and the flow stays where it was.
func (w *Workflow) Choose(ctx context.Context, in Input) (State, error) {
	if in == InputBegin {
		return w.State(), fmt.Errorf("%w: begin requires a user", ErrInvalidTransition)
	}

	ctx, span := logging.StartSpan(ctx, "deletion."+string(in))
	defer span.End()
	logger := logging.FromContext(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	next, effect, err := Transition(w.state, in)
	if err != nil {
		return w.state, err
	}

	switch effect {
	case EffectComposeEmail:
		draft, err := w.compose(ctx)
		if err != nil {
			logger.Error("failed to process account deletion request", "error", err)
			if w.deps.Alerter != nil {
				w.deps.Alerter.Alert(ctx, "Error", FailureAlert)
			}
			return w.state, apperr.Wrap(apperr.ErrDeletionRequest, "compose email", err)
		}
		w.draft = &draft
		w.state = next

		next, _, err = Transition(w.state, inputDrafted)
		if err != nil {
			return w.state, err
		}

	case EffectLogout:
		if err := w.deps.Session.SignOut(ctx); err != nil {
			return w.state, err
		}
		w.deps.State.Clear()
		if w.deps.Navigator != nil {
			w.deps.Navigator.ToSignIn(ctx)
		}
	}

	logger.Info("account deletion step", "from", w.state, "to", next, "effect", effect.String())
	w.state = next
	return w.state, nil
}

func (w *Workflow) compose(ctx context.Context) (Draft, error) {
	draft, err := NewDraft(w.cfg.AdminEmail, w.cfg.Subject, w.request)
	if err != nil {
		return Draft{}, err
	}
	if err := w.deps.Composer.Compose(ctx, draft); err != nil {
		return Draft{}, err
	}
	return draft, nil
}

// Prompter shows a dialog and returns the option the user picked.
type Prompter interface {
	Ask(ctx context.Context, dialog Dialog) (Input, error)
}

// Run drives w for user until the flow ends or a step fails.
func Run(ctx context.Context, w *Workflow, user *models.User, prompter Prompter) (State, error) {
	state, err := w.Start(ctx, user)
	if err != nil {
		return state, err
	}

	for !state.Terminal() {
		dialog, ok := DialogFor(state)
		if !ok {
			return state, fmt.Errorf("%w: no dialog for %s", ErrInvalidTransition, state)
		}
		in, err := prompter.Ask(ctx, dialog)
		if err != nil {
			return state, err
		}
		state, err = w.Choose(ctx, in)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}
