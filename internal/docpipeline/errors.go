package docpipeline

import "github.com/nyawc-go/crawler/pkg/failure"

type WriteErrorCause string

const (
	ErrCauseIOFailure WriteErrorCause = "io failure"
)

// WriteError is a ParseError-adjacent ClassifiedError for the persistence
// step: the document was fully normalized but the filesystem write failed.
type WriteError struct {
	Message string
	Cause   WriteErrorCause
}

func (e *WriteError) Error() string {
	return "docpipeline write error: " + string(e.Cause) + ": " + e.Message
}

func (e *WriteError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

var _ failure.ClassifiedError = (*WriteError)(nil)
