package mdconvert

import (
	"fmt"

	"github.com/nyawc-go/crawler/internal/telemetry"
	"github.com/nyawc-go/crawler/pkg/failure"
)

type ConversionErrorCause string

const (
	ErrCauseConversionFailure = "conversion failed"
)

type ConversionError struct {
	Message   string
	Retryable bool
	Cause     ConversionErrorCause
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: %s", e.Cause)
}

func (e *ConversionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapConversionErrorToMetadataCause(err ConversionError) telemetry.ErrorCause {
	switch err.Cause {
	case ErrCauseConversionFailure:
		return telemetry.CauseContentInvalid
	default:
		return telemetry.CauseUnknown
	}
}
