package extractor

import "golang.org/x/net/html"

// ExtractionResult holds the extraction outcome.
// DocumentRoot is the original parsed HTML document.
// ContentNode is the extracted meaningful content node (semantic container).
type ExtractionResult struct {
	DocumentRoot *html.Node
	ContentNode  *html.Node
}

// ExtractParam carries tunable extraction thresholds. It is empty today;
// the scoring constants in dom.go are still inlined (see their TODOs) and
// will move here as callers need to override them per crawl.
type ExtractParam struct{}
