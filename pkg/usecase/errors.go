package usecase

import (
	"errors"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrTicketNotFound = errors.New("ticket not found")

	// Input errors
	ErrInvalidInput = errors.New("exactly one of ticket ID or free text is required")

	// Output errors
	ErrMalformedOutput = errors.New("model output does not conform to the output schema")

	// ErrCitationUngrounded marks an output that violates the
	// citation-grounding rule. It is detectable but non-blocking: the run
	// still finalizes and the violation is logged as a warning.
	ErrCitationUngrounded = model.ErrUngroundedOutput
)
