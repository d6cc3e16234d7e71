/*
Package telemetry records crawl observability: fetch timestamps, HTTP
status codes, content hashes, crawl depth, and classified failures.

Logging goals:
  - Debuggable crawl behavior
  - Post-run auditability
  - Failure diagnostics

Structured logging is preferred over ad-hoc fmt.Printf. Allowed payload:
primitive values, timestamps, URLs (as values, never as objects with
behavior), hashes, status codes, durations, identifiers.
*/
package telemetry

import (
	"time"

	"github.com/phuslu/log"
)

// MetadataSink is the observability surface every core and
// downstream-pipeline component writes through. It never returns an error:
// a failure to emit a log line must never become a crawl-control-flow
// decision.
type MetadataSink interface {
	RecordFetch(fetchURL string, httpStatus int, duration time.Duration, contentType string, retryCount int, crawlDepth int)
	RecordAssetFetch(fetchURL string, httpStatus int, duration time.Duration, retryCount int)
	RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, details string, attrs []Attribute)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
	RecordCrawlStats(stats CrawlStats)
}

// Recorder is the default MetadataSink: it forwards every event to a
// structured logger (github.com/phuslu/log) and is otherwise stateless —
// it holds no crawl state and must not be consulted for scheduling
// decisions.
type Recorder struct {
	logger log.Logger
}

// NewRecorder constructs a Recorder writing structured, leveled log lines.
func NewRecorder() *Recorder {
	return &Recorder{
		logger: log.Logger{Level: log.InfoLevel},
	}
}

func (r *Recorder) RecordFetch(fetchURL string, httpStatus int, duration time.Duration, contentType string, retryCount int, crawlDepth int) {
	r.logger.Info().
		Str("url", fetchURL).
		Int("status", httpStatus).
		Str("content_type", contentType).
		Int("retry_count", retryCount).
		Int("crawl_depth", crawlDepth).
		Dur("duration", duration).
		Msg("fetch completed")
}

func (r *Recorder) RecordAssetFetch(fetchURL string, httpStatus int, duration time.Duration, retryCount int) {
	r.logger.Info().
		Str("asset_url", fetchURL).
		Int("status", httpStatus).
		Int("retry_count", retryCount).
		Dur("duration", duration).
		Msg("asset fetch completed")
}

func (r *Recorder) RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, details string, attrs []Attribute) {
	entry := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Int("cause", int(cause)).
		Str("error", details)

	for _, a := range attrs {
		entry = entry.Str(string(a.Key), a.Value)
	}
	entry.Msg("recoverable failure recorded")
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	entry := r.logger.Info().Int("kind", int(kind)).Str("path", path)
	for _, a := range attrs {
		entry = entry.Str(string(a.Key), a.Value)
	}
	entry.Msg("artifact written")
}

func (r *Recorder) RecordCrawlStats(stats CrawlStats) {
	r.logger.Info().
		Int("total_pages", stats.TotalPages).
		Int("total_errors", stats.TotalErrors).
		Int("total_assets", stats.TotalAssets).
		Dur("duration", stats.Duration).
		Msg("crawl finished")
}

// NoopSink discards every event. Used by tests and by callers who want the
// core crawl with zero observability overhead.
type NoopSink struct{}

func (NoopSink) RecordFetch(string, int, time.Duration, string, int, int) {}
func (NoopSink) RecordAssetFetch(string, int, time.Duration, int)         {}
func (NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
func (NoopSink) RecordArtifact(ArtifactKind, string, []Attribute)                       {}
func (NoopSink) RecordCrawlStats(CrawlStats)                                           {}

var (
	_ MetadataSink = (*Recorder)(nil)
	_ MetadataSink = NoopSink{}
)
