package fetcher

import (
	"fmt"

	"github.com/nyawc-go/crawler/internal/telemetry"
	"github.com/nyawc-go/crawler/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseInvalidURL            FetchErrorCause = "invalid url"
)

// FetchError is a TransportError per the error taxonomy: it always ends a
// QueueItem in ERRORED and never aborts the crawl.
type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

// Severity is always SeverityRecoverable: a fetch failure is local to one
// QueueItem per §7 and never escalates to a crawl-wide abort. Retryable
// only describes whether a *caller-initiated* retry (if any) makes sense —
// it carries no scheduling weight in the core, which has no global retry
// policy.
func (e *FetchError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// ExtractionError is a ParseError per the error taxonomy: the response was
// fetched successfully but the page could not be parsed for child
// requests. Treated identically to FetchError by the scheduler (item ends
// ERRORED), since the fetch succeeded but the result is unusable.
type ExtractionError struct {
	Message string
	Cause   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractionError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics to the
// canonical telemetry.ErrorCause table. This mapping is observational only
// and MUST NOT be used to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) telemetry.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout:
		return telemetry.CauseNetworkFailure
	case ErrCauseNetworkFailure:
		return telemetry.CauseNetworkFailure
	case ErrCauseInvalidURL:
		return telemetry.CauseContentInvalid
	default:
		return telemetry.CauseUnknown
	}
}
