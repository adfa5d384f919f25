package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested media item does not exist
	ErrItemNotFound = errors.New("media item not found")

	// ErrServerOffline indicates the media service is unreachable
	ErrServerOffline = errors.New("media service is unreachable")

	// ErrAuthFailed indicates the credentials or token were rejected
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotLoggedIn indicates an operation needs an authenticated session
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrMalformedResponse indicates a response body could not be decoded
	ErrMalformedResponse = errors.New("malformed response from media service")

	// ErrPageOutOfRange indicates a page beyond the last page was requested
	ErrPageOutOfRange = errors.New("page out of range")

	ErrDownloadNotPermitted   = errors.New("download not permitted for this video")
	ErrAlreadyDownloading     = errors.New("video is already downloading")
	ErrDeleteWhileDownloading = errors.New("cannot delete a video while it is downloading")
	ErrDeleteInProgress       = errors.New("video is being deleted")
	ErrLocalFileMissing       = errors.New("no local file for this video")
	ErrNotDownloaded          = errors.New("video is not downloaded")

	// ErrObserverNotComparable indicates an observer whose dynamic type cannot be compared,
	// such as a func or map type
	ErrObserverNotComparable = errors.New("observer type is not comparable")

	// ErrBaseURLNotLicensed indicates the license does not allow the configured service URL
	ErrBaseURLNotLicensed = errors.New("service base URL is not permitted by the license")
)

// Kind classifies errors surfaced to observers
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindNotFound
	KindNetwork
	KindStorage
	KindState
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "network"
	case KindStorage:
		return "storage"
	case KindState:
		return "state"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error carries a Kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Op   string // Operation that failed, e.g. "login" or "download"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given Kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func AuthError(op string, err error) error       { return newError(KindAuthentication, op, err) }
func NotFoundError(op string, err error) error   { return newError(KindNotFound, op, err) }
func NetworkError(op string, err error) error    { return newError(KindNetwork, op, err) }
func StorageError(op string, err error) error    { return newError(KindStorage, op, err) }
func StateError(op string, err error) error      { return newError(KindState, op, err) }
func ValidationError(op string, err error) error { return newError(KindValidation, op, err) }
