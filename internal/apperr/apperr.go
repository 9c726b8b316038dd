// Package apperr defines the failure kinds surfaced by the app core to UI collaborators.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistration indicates account registration did not complete.
	ErrRegistration = errors.New("registration failed")
	// ErrAuthentication indicates credentials were rejected or could not be verified.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSession indicates the active session could not be resolved or destroyed.
	ErrSession = errors.New("session error")
	// ErrQuery indicates a document query failed.
	ErrQuery = errors.New("query failed")
	// ErrUpload indicates a binary asset could not be stored.
	ErrUpload = errors.New("upload failed")
	// ErrInvalidAssetKind indicates an asset kind other than image or video.
	ErrInvalidAssetKind = errors.New("invalid asset kind")
	// ErrPreviewResolution indicates the backend produced no URL for a stored file.
	ErrPreviewResolution = errors.New("preview url unavailable")
	// ErrCreation indicates a video post could not be created.
	ErrCreation = errors.New("creation failed")
	// ErrDeletionRequest indicates the account deletion request could not be drafted.
	ErrDeletionRequest = errors.New("deletion request failed")
)

// Error ties an underlying cause to one of the package failure kinds.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// Wrap returns an Error of the provided kind. A nil cause is allowed.
func Wrap(kind error, op string, cause error) error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Op == "":
		return e.Kind.Error()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf reports which package kind err carries, or nil.
func KindOf(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return nil
}
