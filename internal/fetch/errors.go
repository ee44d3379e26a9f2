package fetch

import "errors"

// Upstream failure taxonomy. getJSON wraps every failure in one of these;
// the public gateway methods absorb them and return empty/absent results.
var (
	ErrTransport = errors.New("transport error") // network failure or non-200 status
	ErrParse     = errors.New("parse error")     // malformed upstream payload
	ErrNotFound  = errors.New("not found")       // upstream returned null
)

// Caller errors. These are the only errors LoadItems and FetchComments
// return besides context cancellation.
var (
	ErrInvalidPage = errors.New("page must be >= 1")
	ErrUnknownFeed = errors.New("unknown feed type")
)

// failureKind names the taxonomy bucket of err for event logs.
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "other"
	}
}
