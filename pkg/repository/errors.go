package repository

import "errors"

// Upstream error taxonomy. Returned errors wrap one of these, check with errors.Is.
var (
	// ErrUpstreamUnavailable is a transport failure or an unexpected upstream status.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedResponse means the body did not decode to the expected shape.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrNotFound means the upstream has no record for the identifier.
	ErrNotFound = errors.New("item not found")
)

// Metric labels of upstream request results.
const (
	resultOK          = "ok"
	resultUnavailable = "unavailable"
	resultMalformed   = "malformed"
	resultNotFound    = "not_found"
)

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrMalformedResponse):
		return resultMalformed
	default:
		return resultUnavailable
	}
}
