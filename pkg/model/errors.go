package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrValidation indicates malformed input rejected before any store mutation
	ErrValidation = goerr.New("validation failed")

	// ErrNotFound indicates the entity has no content store row
	ErrNotFound = goerr.New("not found")

	// ErrNotAuthorized indicates an ownership mismatch
	ErrNotAuthorized = goerr.New("not authorized")

	// ErrUnknownTool indicates the model requested a tool that is not registered
	ErrUnknownTool = goerr.New("unknown tool")

	// ErrEmptyResponse indicates the model returned no usable candidates
	ErrEmptyResponse = goerr.New("empty model response")

	// ErrModelTimeout indicates the model did not answer within the per-turn
	// deadline. No messages are recorded for such a turn.
	ErrModelTimeout = goerr.New("model timeout")
)
