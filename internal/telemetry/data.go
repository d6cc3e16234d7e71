package telemetry

import "time"

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
  - ErrorCause is for observability only.
  - It must never be used to derive retry, continuation, or abort decisions.
  - ErrorCause values MUST have stable, package-agnostic semantics.
  - Packages MAY map their local errors to ErrorCause, but MUST NOT invent
    new meanings.

Non-goals:
  - ErrorCause does not encode severity.
  - ErrorCause does not imply retryability.
  - ErrorCause does not imply crawl termination.

If a failure does not clearly map to a defined cause, CauseUnknown MUST be
used.
*/
type ErrorCause int

const (
	// CauseUnknown: the failure does not map cleanly to any known
	// category. Safe fallback for unexpected internal errors.
	CauseUnknown ErrorCause = iota

	// CauseNetworkFailure: TCP timeouts, DNS resolution failures,
	// connection resets.
	CauseNetworkFailure

	// CausePolicyDisallow: crawling was disallowed by an explicit rule —
	// scope rejection, HTTP 403/401 interpreted as access denial.
	CausePolicyDisallow

	// CauseContentInvalid: content was fetched but could not be
	// processed meaningfully — malformed URLs, broken DOM, empty bodies.
	CauseContentInvalid

	// CauseStorageFailure: failure while persisting downstream-pipeline
	// artifacts — disk full, permission errors.
	CauseStorageFailure

	// CauseInvariantViolation: a system-level invariant was violated —
	// e.g. multiple H1s in a normalized document.
	CauseInvariantViolation

	// CauseRetryFailure: a bounded retry policy (pkg/retry) exhausted its
	// attempts before the operation succeeded.
	CauseRetryFailure
)

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrMessage    AttributeKey = "message"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrAssetURL   AttributeKey = "asset_url"
	AttrWritePath  AttributeKey = "write_path"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{Key: key, Value: val}
}

// ArtifactKind distinguishes the downstream-pipeline outputs an
// ArtifactRecord may describe.
type ArtifactKind int

const (
	ArtifactMarkdown ArtifactKind = iota
	ArtifactAsset
)

// ErrorRecord is one recorded failure, observability-only (see ErrorCause).
type ErrorRecord struct {
	PackageName string
	Action      string
	Cause       ErrorCause
	ErrorString string
	ObservedAt  time.Time
	Attrs       []Attribute
}

// CrawlStats is a terminal, derived summary of a completed crawl.
//
//   - Contains only aggregate counts and durations.
//   - Computed by the scheduler after crawl termination.
//   - Recorded exactly once, from crawler_after_finish.
//   - Must not influence scheduling, retries, or crawl termination.
type CrawlStats struct {
	TotalPages  int
	TotalErrors int
	TotalAssets int
	Duration    time.Duration
}
