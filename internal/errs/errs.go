package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller. It decides the HTTP status and
// whether a mutation was attempted.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error is a classified error. Reason is a stable sentinel (e.g. ErrCourtBusy)
// so callers can match on the specific case with errors.Is.
type Error struct {
	Kind   Kind
	Reason error
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Reason != nil:
		return e.Reason.Error()
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() []error {
	out := []error{kindSentinel(e.Kind)}
	if e.Reason != nil {
		out = append(out, e.Reason)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Kind sentinels.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
	ErrInternal   = errors.New("internal error")
)

// Specific reasons.
var (
	ErrInvalidGroupSize = errors.New("group must contain exactly 4 players")
	ErrInvalidTeamSize  = errors.New("team must contain 1 or 2 players")
	ErrInvalidScore     = errors.New("scores must be non-negative and different")
	ErrDuplicatePlayer  = errors.New("player appears more than once")
	ErrNonFinite        = errors.New("computation produced a non-finite value")
	ErrCourtBusy        = errors.New("court is already hosting an ongoing match")
	ErrMatchNotFound    = errors.New("match not found")
	ErrInvalidState     = errors.New("match is not in the required state")
	ErrSessionActive    = errors.New("another session is already active")
	ErrNoActiveSession  = errors.New("no active session")
)

func kindSentinel(k Kind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	case KindStorage:
		return ErrStorage
	default:
		return ErrInternal
	}
}

// Validation reports malformed input. No state has been changed.
func Validation(reason error, format string, args ...any) error {
	return &Error{Kind: KindValidation, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a request that collides with current state.
func Conflict(reason error, format string, args ...any) error {
	return &Error{Kind: KindConflict, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity or one in the wrong lifecycle state.
func NotFound(reason error, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a collaborator failure. Returns nil for a nil err.
func Storage(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindStorage, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error onto the status code handlers respond with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
