package deletion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/models"
)

type recorder struct {
	events     []string
	drafts     []Draft
	alerts     []string
	composeErr error
	signOutErr error
}

func (r *recorder) Compose(_ context.Context, d Draft) error {
	r.events = append(r.events, "compose")
	if r.composeErr != nil {
		return r.composeErr
	}
	r.drafts = append(r.drafts, d)
	return nil
}

func (r *recorder) SignOut(context.Context) error {
	r.events = append(r.events, "sign_out")
	return r.signOutErr
}

func (r *recorder) Clear() { r.events = append(r.events, "clear") }

func (r *recorder) ToSignIn(context.Context) { r.events = append(r.events, "navigate") }

func (r *recorder) Alert(_ context.Context, _, message string) {
	r.alerts = append(r.alerts, message)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

var ada = &models.User{ID: "u1", AccountID: "acc-1", Email: "ada@example.com", Username: "ada"}

func newWorkflow(r *recorder) *Workflow {
	return NewWorkflow(Dependencies{
		Composer:  r,
		Session:   r,
		State:     r,
		Navigator: r,
		Alerter:   r,
	}, Config{AdminEmail: "support@example.com", Subject: "Account Deletion Request"})
}

func drive(t *testing.T, w *Workflow, inputs ...Input) State {
	t.Helper()
	state, err := w.Start(context.Background(), ada)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, in := range inputs {
		state, err = w.Choose(context.Background(), in)
		if err != nil {
			t.Fatalf("choose %s: %v", in, err)
		}
	}
	return state
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   State
		in     Input
		to     State
		effect Effect
		ok     bool
	}{
		{StateIdle, InputBegin, StateConfirmIntent, EffectNone, true},
		{StateIdle, InputDelete, StateIdle, EffectNone, false},
		{StateConfirmIntent, InputDelete, StateConfirmSend, EffectNone, true},
		{StateConfirmIntent, InputCancel, StateCancelled, EffectNone, true},
		{StateConfirmIntent, InputSendEmail, StateConfirmIntent, EffectNone, false},
		{StateConfirmSend, InputSendEmail, StateEmailDrafted, EffectComposeEmail, true},
		{StateConfirmSend, InputCancel, StateCancelled, EffectNone, true},
		{StateEmailDrafted, inputDrafted, StateConfirmLogout, EffectNone, true},
		{StateEmailDrafted, InputConfirmLogout, StateEmailDrafted, EffectNone, false},
		{StateConfirmLogout, InputConfirmLogout, StateLoggedOut, EffectLogout, true},
		{StateConfirmLogout, InputCancel, StateCancelled, EffectNone, true},
		{StateCancelled, InputBegin, StateConfirmIntent, EffectNone, true},
		{StateLoggedOut, InputCancel, StateLoggedOut, EffectNone, false},
	}

	for _, tc := range cases {
		to, effect, err := Transition(tc.from, tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("%s + %s: unexpected error %v", tc.from, tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s + %s: expected ErrInvalidTransition, got %v", tc.from, tc.in, err)
		}
		if to != tc.to || effect != tc.effect {
			t.Fatalf("%s + %s: got (%s, %s) want (%s, %s)", tc.from, tc.in, to, effect, tc.to, tc.effect)
		}
	}
}

func TestCancelAtIntentHasNoSideEffects(t *testing.T) {
	r := &recorder{}
	state := drive(t, newWorkflow(r), InputCancel)

	if state != StateCancelled {
		t.Fatalf("expected cancelled, got %s", state)
	}
	if len(r.events) != 0 {
		t.Fatalf("expected no side effects, got %v", r.events)
	}
}

func TestCancelAtLogoutKeepsSession(t *testing.T) {
	r := &recorder{}
	state := drive(t, newWorkflow(r), InputDelete, InputSendEmail, InputCancel)

	if state != StateCancelled {
		t.Fatalf("expected cancelled, got %s", state)
	}
	if r.count("compose") != 1 || r.count("sign_out") != 0 || r.count("clear") != 0 {
		t.Fatalf("unexpected events %v", r.events)
	}
}

func TestFullPathComposesThenSignsOut(t *testing.T) {
	r := &recorder{}
	w := newWorkflow(r)
	state := drive(t, w, InputDelete, InputSendEmail, InputConfirmLogout)

	if state != StateLoggedOut {
		t.Fatalf("expected logged out, got %s", state)
	}
	want := []string{"compose", "sign_out", "clear", "navigate"}
	if strings.Join(r.events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event order %v", r.events)
	}

	draft := r.drafts[0]
	if len(draft.To) != 1 || draft.To[0] != "support@example.com" || draft.Subject != "Account Deletion Request" {
		t.Fatalf("unexpected draft header %+v", draft)
	}
	for _, want := range []string{"Username: ada", "Email: ada@example.com", "Account ID: acc-1", "48 hours"} {
		if !strings.Contains(draft.Body, want) {
			t.Fatalf("draft body missing %q:\n%s", want, draft.Body)
		}
	}
	if last, ok := w.LastDraft(); !ok || last.Body != draft.Body {
		t.Fatal("expected last draft to be kept")
	}
}

func TestSendEmailStopsAtLogoutConfirmation(t *testing.T) {
	r := &recorder{}
	state := drive(t, newWorkflow(r), InputDelete, InputSendEmail)
	if state != StateConfirmLogout {
		t.Fatalf("expected to wait for logout confirmation, got %s", state)
	}
	if r.count("sign_out") != 0 {
		t.Fatal("logout must wait for confirmation")
	}
}

func TestComposeFailureAlertsOnceAndHalts(t *testing.T) {
	boom := errors.New("no mail account")
	r := &recorder{composeErr: boom}
	w := newWorkflow(r)
	drive(t, w, InputDelete)

	state, err := w.Choose(context.Background(), InputSendEmail)
	if !errors.Is(err, apperr.ErrDeletionRequest) || !errors.Is(err, boom) {
		t.Fatalf("expected deletion request error, got %v", err)
	}
	if state != StateConfirmSend || w.State() != StateConfirmSend {
		t.Fatalf("expected to stay at confirm send, got %s", state)
	}
	if len(r.alerts) != 1 || r.alerts[0] != FailureAlert {
		t.Fatalf("expected one alert, got %v", r.alerts)
	}
	if r.count("sign_out") != 0 {
		t.Fatal("sign out must not run after a failed draft")
	}
	if _, ok := w.LastDraft(); ok {
		t.Fatal("no draft should be recorded")
	}
}

func TestSignOutFailurePropagates(t *testing.T) {
	r := &recorder{signOutErr: apperr.Wrap(apperr.ErrSession, "sign out", errors.New("offline"))}
	w := newWorkflow(r)
	drive(t, w, InputDelete, InputSendEmail)

	state, err := w.Choose(context.Background(), InputConfirmLogout)
	if !errors.Is(err, apperr.ErrSession) {
		t.Fatalf("expected session error, got %v", err)
	}
	if state != StateConfirmLogout {
		t.Fatalf("expected to stay at logout confirmation, got %s", state)
	}
	if r.count("clear") != 0 || r.count("navigate") != 0 {
		t.Fatalf("state must not be cleared when sign out fails: %v", r.events)
	}
}

func TestStartRequiresUserAndRejectsRestartMidFlow(t *testing.T) {
	r := &recorder{}
	w := newWorkflow(r)

	if _, err := w.Start(context.Background(), nil); !errors.Is(err, apperr.ErrDeletionRequest) {
		t.Fatalf("expected deletion request error, got %v", err)
	}
	if _, err := w.Choose(context.Background(), InputDelete); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from idle, got %v", err)
	}

	drive(t, w, InputDelete)
	if _, err := w.Start(context.Background(), ada); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected restart mid-flow to be rejected, got %v", err)
	}
	if _, err := w.Choose(context.Background(), InputBegin); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected begin via choose to be rejected, got %v", err)
	}
}

type scriptedPrompter struct {
	answers []Input
	titles  []string
}

func (p *scriptedPrompter) Ask(_ context.Context, d Dialog) (Input, error) {
	p.titles = append(p.titles, d.Title)
	if len(p.answers) == 0 {
		return "", errors.New("out of answers")
	}
	in := p.answers[0]
	p.answers = p.answers[1:]
	return in, nil
}

func TestRunWalksDialogs(t *testing.T) {
	r := &recorder{}
	p := &scriptedPrompter{answers: []Input{InputDelete, InputSendEmail, InputConfirmLogout}}

	state, err := Run(context.Background(), newWorkflow(r), ada, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state != StateLoggedOut {
		t.Fatalf("expected logged out, got %s", state)
	}
	want := "Delete Account,Send Account Deletion Email,Logout Confirmation"
	if strings.Join(p.titles, ",") != want {
		t.Fatalf("unexpected dialogs %v", p.titles)
	}
}

func TestDialogForReturnsCopies(t *testing.T) {
	d, ok := DialogFor(StateConfirmIntent)
	if !ok || len(d.Options) != 2 || !d.Options[1].Destructive {
		t.Fatalf("unexpected dialog %+v", d)
	}
	d.Options[0].Label = "changed"
	again, _ := DialogFor(StateConfirmIntent)
	if again.Options[0].Label != "Cancel" {
		t.Fatal("dialog catalogue was mutated")
	}
	if _, ok := DialogFor(StateLoggedOut); ok {
		t.Fatal("terminal states have no dialog")
	}
}

func TestParseInput(t *testing.T) {
	if in, err := ParseInput("send_email"); err != nil || in != InputSendEmail {
		t.Fatalf("unexpected parse %q %v", in, err)
	}
	if _, err := ParseInput("drafted"); err == nil {
		t.Fatal("internal inputs must not be parsed")
	}
}
