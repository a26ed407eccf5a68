package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy. Attach a tag with goerr.T when wrapping, check with
// goerr.HasTag. None of these is fatal: storage errors degrade to empty
// reads and no-op writes, service and malformed-response errors trigger the
// local fallback reply.
var (
	// ErrTagStorage marks a read/write failure on the persistent store.
	ErrTagStorage = goerr.NewTag("storage")

	// ErrTagService marks a non-success transport or protocol outcome from
	// the model service. The error carries a "status" value.
	ErrTagService = goerr.NewTag("service")

	// ErrTagMalformedResponse marks a success status whose payload lacks the
	// expected reply field.
	ErrTagMalformedResponse = goerr.NewTag("malformed_response")
)
