package crawlopts

import (
	"errors"
	"fmt"

	"github.com/nyawc-go/crawler/pkg/failure"
)

var (
	ErrFileDoesNotExist   = errors.New("options file does not exist")
	ErrReadOptionsFail    = errors.New("failed to read options file")
	ErrOptionsParsingFail = errors.New("failed to parse options file")
	ErrInvalidOptions     = errors.New("invalid crawler options")
)

// OptionsError is a ConfigurationError per §7: raised synchronously from
// Build (and therefore from StartWith, before any crawling begins), never
// during a crawl in progress.
type OptionsError struct {
	Message string
	Cause   error
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("crawlopts: %s: %v", e.Message, e.Cause)
}

func (e *OptionsError) Unwrap() error {
	return e.Cause
}

func (e *OptionsError) Severity() failure.Severity {
	return failure.SeverityFatal
}
