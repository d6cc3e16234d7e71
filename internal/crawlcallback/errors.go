package crawlcallback

import (
	"fmt"

	"github.com/nyawc-go/crawler/pkg/failure"
)

// CallbackError wraps whatever a user callback panicked with or returned.
// It is never fatal: the dispatcher that produces one always treats the
// callback as if it had returned action.None, per the error taxonomy's
// CallbackError policy.
type CallbackError struct {
	Hook    string
	Message string
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("crawlcallback: %s: %s", e.Hook, e.Message)
}

func (e *CallbackError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
