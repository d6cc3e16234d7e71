package docpipeline_test

import (
	"net/url"
	"os"
	"testing"

	"github.com/nyawc-go/crawler/internal/docpipeline"
	"github.com/nyawc-go/crawler/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = `
<html>
<head><title>Widgets</title></head>
<body>
<main>
<h1>Widgets</h1>
<p>Widgets are small reusable components used throughout the catalog.</p>
<h2>Usage</h2>
<p>Import the package and call <code>New()</code> to construct one.</p>
</main>
</body>
</html>`

// GIVEN a well-formed documentation page and a configured OutputDir
// WHEN it runs through the full pipeline
// THEN a Markdown artifact is written under OutputDir and its frontmatter
// reflects the page URL and crawl depth.
func TestRun_WritesMarkdownArtifact(t *testing.T) {
	outDir := t.TempDir()
	p := docpipeline.New(telemetry.NoopSink{}, docpipeline.NewDefaultParams(outDir, "0.0.0-test"))

	pageURL, err := url.Parse("https://docs.example.test/guide/widgets")
	require.NoError(t, err)

	result, cerr := p.Run(*pageURL, 2, []byte(fixtureHTML))
	require.Nil(t, cerr)

	assert.Equal(t, "https://docs.example.test/guide/widgets", result.Frontmatter.SourceURL())
	assert.Equal(t, 2, result.Frontmatter.CrawlDepth())
	assert.NotEmpty(t, result.Path)

	written, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Widgets are small reusable components")
}

// GIVEN a Pipeline with no OutputDir configured
// WHEN it runs through the pipeline
// THEN frontmatter is returned but nothing is written to disk.
func TestRun_NoOutputDir_SkipsPersistence(t *testing.T) {
	p := docpipeline.New(telemetry.NoopSink{}, docpipeline.NewDefaultParams("", "0.0.0-test"))

	pageURL, err := url.Parse("https://docs.example.test/guide/widgets")
	require.NoError(t, err)

	result, cerr := p.Run(*pageURL, 0, []byte(fixtureHTML))
	require.Nil(t, cerr)
	assert.Empty(t, result.Path)
	assert.Equal(t, "Widgets", result.Frontmatter.Title())
}

// GIVEN a page with no extractable main content
// WHEN it runs through the pipeline
// THEN extraction fails fast with a ClassifiedError and nothing is written.
func TestRun_UnextractableContent_ReturnsClassifiedError(t *testing.T) {
	outDir := t.TempDir()
	p := docpipeline.New(telemetry.NoopSink{}, docpipeline.NewDefaultParams(outDir, "0.0.0-test"))

	pageURL, err := url.Parse("https://docs.example.test/empty")
	require.NoError(t, err)

	_, cerr := p.Run(*pageURL, 0, []byte("<html><body></body></html>"))
	require.NotNil(t, cerr)
}
