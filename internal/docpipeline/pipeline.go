// Package docpipeline wires the document conversion stages — extract,
// sanitize, convert, normalize — into the single path a fetched HTML page
// takes on its way to an optional Markdown artifact on disk. Persistence is
// downstream and optional: a Pipeline with no OutputDir still normalizes and
// returns frontmatter, it just never touches the filesystem.
package docpipeline

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nyawc-go/crawler/internal/extractor"
	"github.com/nyawc-go/crawler/internal/mdconvert"
	"github.com/nyawc-go/crawler/internal/normalize"
	"github.com/nyawc-go/crawler/internal/sanitizer"
	"github.com/nyawc-go/crawler/internal/telemetry"
	"github.com/nyawc-go/crawler/pkg/failure"
	"github.com/nyawc-go/crawler/pkg/hashutil"
)

// Params configures a Pipeline run. CrawlerVersion is set once per crawl;
// OutputDir is optional — leave it empty to normalize without persisting.
type Params struct {
	OutputDir           string
	HashAlgo            hashutil.HashAlgo
	CrawlerVersion      string
	AllowedPathPrefixes []string
}

// NewDefaultParams returns Params with the hash algorithm the rest of the
// crawler's content-addressing already uses.
func NewDefaultParams(outputDir, crawlerVersion string) Params {
	return Params{
		OutputDir:      outputDir,
		HashAlgo:       hashutil.HashAlgoBLAKE3,
		CrawlerVersion: crawlerVersion,
	}
}

// Pipeline is the extract->sanitize->convert->normalize->persist chain
// driven once per successfully fetched page.
type Pipeline struct {
	sink      telemetry.MetadataSink
	extractor extractor.DomExtractor
	sanitizer sanitizer.HtmlSanitizer
	convert   mdconvert.ConvertRule
	normalize normalize.Constraint
	params    Params
}

// New builds a Pipeline with each stage's default implementation, wired to
// the same MetadataSink the rest of the crawl reports through.
func New(sink telemetry.MetadataSink, params Params) *Pipeline {
	if sink == nil {
		sink = telemetry.NoopSink{}
	}
	normalizer := normalize.NewMarkdownConstraint(sink)
	return &Pipeline{
		sink:      sink,
		extractor: extractor.NewDomExtractor(sink, extractor.ExtractParam{}),
		sanitizer: sanitizer.NewHTMLSanitizer(sink),
		convert:   mdconvert.NewRule(sink),
		normalize: &normalizer,
		params:    params,
	}
}

// Result is what a fetched page becomes once it has run the full pipeline.
// Path is empty when the Pipeline has no OutputDir configured.
type Result struct {
	Path        string
	Frontmatter normalize.Frontmatter
}

// Run takes a fetched page's raw HTML body through every document stage. A
// failure at any stage is a ClassifiedError from that stage — never fatal to
// the crawl itself, per how request_after_finish treats document-pipeline
// outcomes as advisory.
func (p *Pipeline) Run(pageURL url.URL, crawlDepth int, htmlBody []byte) (Result, failure.ClassifiedError) {
	extraction, err := p.extractor.Extract(pageURL, htmlBody)
	if err != nil {
		return Result{}, err
	}

	sanitized, err := p.sanitizer.Sanitize(extraction.ContentNode)
	if err != nil {
		return Result{}, err
	}

	converted, err := p.convert.Convert(sanitized)
	if err != nil {
		return Result{}, err
	}

	normalizeParam := normalize.NewNormalizeParam(
		p.params.CrawlerVersion,
		time.Now(),
		p.params.HashAlgo,
		crawlDepth,
		p.params.AllowedPathPrefixes,
	)
	normalized, err := p.normalize.Normalize(pageURL, converted.GetMarkdownContent(), normalizeParam)
	if err != nil {
		return Result{}, err
	}

	if p.params.OutputDir == "" {
		return Result{Frontmatter: normalized.Frontmatter()}, nil
	}

	path, writeErr := p.write(normalized)
	if writeErr != nil {
		return Result{}, writeErr
	}
	p.sink.RecordArtifact(telemetry.ArtifactMarkdown, path, []telemetry.Attribute{
		telemetry.NewAttr(telemetry.AttrURL, pageURL.String()),
	})

	return Result{Path: path, Frontmatter: normalized.Frontmatter()}, nil
}

// write persists a normalized document as a single Markdown file named after
// its doc_id, so re-crawling the same canonical URL overwrites the same
// artifact rather than accumulating duplicates.
func (p *Pipeline) write(doc normalize.NormalizedMarkdownDoc) (string, *WriteError) {
	if err := os.MkdirAll(p.params.OutputDir, 0o755); err != nil {
		return "", &WriteError{Message: fmt.Sprintf("creating output dir: %v", err), Cause: ErrCauseIOFailure}
	}

	name := fmt.Sprintf("%s.md", sanitizeDocID(doc.Frontmatter().DocID()))
	path := filepath.Join(p.params.OutputDir, name)

	if err := os.WriteFile(path, doc.Content(), 0o644); err != nil {
		return "", &WriteError{Message: fmt.Sprintf("writing markdown artifact: %v", err), Cause: ErrCauseIOFailure}
	}
	return path, nil
}

// sanitizeDocID strips the "algo:" prefix a doc_id carries (e.g.
// "blake3:9f2c...") down to a plain filesystem-safe hex name.
func sanitizeDocID(docID string) string {
	if idx := strings.IndexByte(docID, ':'); idx >= 0 {
		return docID[idx+1:]
	}
	return docID
}
