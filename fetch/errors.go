package fetch

import "errors"

// The four failure classes at the fetch boundary. The retry controller
// treats them identically; adapters wrap them so callers can use errors.Is.
var (
	// ErrTransport covers request construction, connection and read failures.
	ErrTransport = errors.New("transport failure")

	// ErrDecode covers payloads that are not valid JSON.
	ErrDecode = errors.New("payload decode failure")

	// ErrNotCollection covers valid JSON payloads that are not an array.
	ErrNotCollection = errors.New("payload is not a collection")

	// ErrEmpty covers payloads that decode to an empty collection.
	ErrEmpty = errors.New("payload is an empty collection")
)

// Class returns a short label for the failure class of err, for logging.
func Class(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrNotCollection):
		return "not_collection"
	case errors.Is(err, ErrEmpty):
		return "empty"
	default:
		return "unknown"
	}
}
