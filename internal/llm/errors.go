package llm

import "errors"

// Sentinel errors callers branch on to decide retry behavior.
var (
	// ErrUnavailable means the model endpoint could not be reached or
	// returned a server error. Retryable.
	ErrUnavailable = errors.New("llm: model endpoint unavailable")
	// ErrBadRequest means the endpoint rejected the request, typically an
	// unknown model name. Not retryable.
	ErrBadRequest = errors.New("llm: bad request")
	// ErrEmptyReply means the endpoint answered with no text. Retryable.
	ErrEmptyReply = errors.New("llm: empty reply")
)
