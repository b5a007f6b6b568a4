// Package apperr defines the error kinds shared across the converter pipeline.
package apperr

import "errors"

var (
	// ErrTraversal means the source tree could not be walked.
	ErrTraversal = errors.New("traversal failed")
	// ErrSourceRead means a single note could not be read for hashing.
	ErrSourceRead = errors.New("source read failed")
	// ErrDecode means the renderer rejected the note (corrupt or unsupported).
	ErrDecode = errors.New("decode failed")
	// ErrTimeout means the renderer exceeded its deadline.
	ErrTimeout = timeoutError{}
	// ErrEmptyResult means the renderer produced no pages. Not a failure.
	ErrEmptyResult = errors.New("empty result")
	// ErrIOWrite means the destination could not be written.
	ErrIOWrite = errors.New("write failed")
	// ErrCacheCorrupt means the persisted cache could not be parsed.
	ErrCacheCorrupt = errors.New("cache corrupt")
)

// timeoutError is a decode failure caused by a deadline, so that
// errors.Is(err, ErrDecode) holds for timeouts as well.
type timeoutError struct{}

func (timeoutError) Error() string { return "conversion timed out" }

func (timeoutError) Is(target error) bool { return target == ErrDecode }

// Kind returns a short name for the error kind of err, for logging.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTraversal):
		return "traversal"
	case errors.Is(err, ErrSourceRead):
		return "source_read"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrIOWrite):
		return "io_write"
	case errors.Is(err, ErrCacheCorrupt):
		return "cache_corrupt"
	default:
		return "unknown"
	}
}
