package api

import (
	"errors"
	"net/http"

	"github.com/okian/podium/internal/adapters/lock"
	"github.com/okian/podium/internal/adapters/repository"
	service "github.com/okian/podium/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("service unavailable")

	errBadBody             = errors.New("invalid request body")
	errNameRequired        = errors.New("name required")
	errNameProblemRequired = errors.New("name and problem required")
	errInvalidLimit        = errors.New("limit must be a positive integer")
	errInvalidProblemParam = errors.New("problem must be an integer")
)

// opError records the operation that failed and, optionally, the kind used
// to pick the HTTP status.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	return e.op + ": " + e.cause().Error()
}

func (e *opError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

func (e *opError) cause() error {
	if e.err != nil {
		return e.err
	}
	return e.kind
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind annotates err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// classify maps an error to an HTTP status and a machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidProblem),
		errors.Is(err, service.ErrUnknownParticipant),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, lock.ErrLockTimeout):
		return http.StatusServiceUnavailable, "lock_timeout"
	case errors.Is(err, ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// publicMessage returns the text safe to show to clients. Server-side
// failures are reported generically.
func publicMessage(err error, status int) string {
	switch {
	case status == http.StatusServiceUnavailable && errors.Is(err, lock.ErrLockTimeout):
		return "server busy, please retry"
	case status >= http.StatusInternalServerError:
		return http.StatusText(status)
	}
	var oe *opError
	if errors.As(err, &oe) {
		return rootMessage(oe.cause())
	}
	return err.Error()
}

// rootMessage strips nested operation prefixes added by this package.
func rootMessage(err error) string {
	var oe *opError
	for errors.As(err, &oe) {
		err = oe.cause()
	}
	return err.Error()
}
