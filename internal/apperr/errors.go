// Package apperr classifies failures of the catalog and backend clients into
// a small set of kinds and maps them to user-facing messages.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind is the category of a failure
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
	KindConflict   Kind = "conflict"
	KindUnknown    Kind = "unknown"
)

// DuplicateKeyCode is the SQL state reported for unique constraint violations
const DuplicateKeyCode = "23505"

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in user
	ErrNotAuthenticated = &Error{Kind: KindAuth, Op: "session", Err: errors.New("not authenticated")}

	// ErrAlreadyWatched rejects adding a watched movie to the watchlist
	ErrAlreadyWatched = &Error{Kind: KindValidation, Op: "watchlist", Err: errors.New("movie already watched")}
)

// Error is a classified failure
type Error struct {
	Kind   Kind
	Op     string
	Code   string // backend error code, if any
	Status int    // HTTP status, if any
	Err    error
}

func (e *Error) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode implements Coder
func (e *Error) ErrorCode() string {
	return e.Code
}

// Coder is implemented by errors that carry a backend error code
type Coder interface {
	ErrorCode() string
}

// New returns a classified error
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap classifies err and attaches the operation name
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Classify(err), Op: op, Err: err}
}

// FromStatus builds the error for a non-2xx HTTP response
func FromStatus(op string, status int, code, message string) *Error {
	kind := KindFromStatus(status)
	if code == DuplicateKeyCode {
		kind = KindConflict
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Kind:   kind,
		Op:     op,
		Code:   code,
		Status: status,
		Err:    fmt.Errorf("request failed with status %d: %s", status, message),
	}
}

// KindFromStatus maps an HTTP status code to a Kind
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return KindNetwork
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// KindOf returns the Kind of err (KindUnknown for nil)
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	return Classify(err)
}

// Classify determines the Kind of an arbitrary error. Errors already
// classified keep their kind; everything else is matched on its code and
// lower-cased message.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	code := ""
	var coder Coder
	if errors.As(err, &coder) {
		code = strings.ToLower(coder.ErrorCode())
	}
	msg := strings.ToLower(err.Error())

	switch {
	case code == DuplicateKeyCode || containsAny(msg, "duplicate key", "23505"):
		return KindConflict
	case containsAny(msg, "network", "internet", "offline", "connection"):
		return KindNetwork
	case strings.HasPrefix(code, "auth/") || containsAny(msg, "auth", "login", "password", "credentials", "token"):
		return KindAuth
	case containsAny(msg, "valid", "required", "missing"):
		return KindValidation
	case containsAny(msg, "server", "500", "timeout"):
		return KindServer
	case containsAny(msg, "not found", "404") || strings.Contains(code, "not-found"):
		return KindNotFound
	case containsAny(msg, "permission", "access", "forbidden", "403"):
		return KindPermission
	}
	return KindUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
