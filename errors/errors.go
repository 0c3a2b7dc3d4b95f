// Package errors defines the failure taxonomy of the coordination layer
// and its mapping to wire-level error kinds.
//
// Connection-level failures (authentication) are fatal to that connection
// only. Everything else is scoped to a single operation: reported back to
// the originator as a tagged error event, never retried server-side.
package errors

import (
	"errors"
	"fmt"

	"collab-hub/domain"
)

var (
	// Authentication (fatal to the connection, no session state exists yet).
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrInactiveAccount   = errors.New("account is deactivated")

	// Per-operation.
	ErrPermissionDenied  = errors.New("not allowed to access this document")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("password does not meet complexity requirements")
)

// LockConflictError is the denial returned to a requester whose acquire
// lost: it names the current holder so the UI can show who is editing.
// Denials are never broadcast.
type LockConflictError struct {
	FieldID string
	Holder  domain.Participant
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("field %q is locked by %s", e.FieldID, e.Holder.Name)
}

// VersionConflictError rejects a stale proposal. It carries the
// authoritative version and the full current document so the client can
// re-fetch and retry; the server never merges.
type VersionConflictError struct {
	Authoritative int64
	Document      domain.Document
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("stale version, authoritative is %d", e.Authoritative)
}

// ValidationError flags a malformed request (empty comment, dangling
// parent reference, oversized text).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Wire-level error kinds, carried in the "error" event payload.
const (
	KindAuth            = "auth"
	KindPermission      = "permission"
	KindNotFound        = "not-found"
	KindLockConflict    = "lock-conflict"
	KindVersionConflict = "version-conflict"
	KindValidation      = "validation"
	KindInternal        = "internal"
)

// Kind maps an error to its wire-level kind tag.
func Kind(err error) string {
	var lockErr *LockConflictError
	var versionErr *VersionConflictError
	var validationErr *ValidationError

	switch {
	case errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInactiveAccount):
		return KindAuth
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, ErrDocumentNotFound),
		errors.Is(err, ErrCommentNotFound),
		errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.As(err, &lockErr):
		return KindLockConflict
	case errors.As(err, &versionErr):
		return KindVersionConflict
	case errors.As(err, &validationErr):
		return KindValidation
	default:
		return KindInternal
	}
}

// Re-exported stdlib helpers so callers only import one errors package.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
