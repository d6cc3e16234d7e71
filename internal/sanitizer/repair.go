package sanitizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// UnrepairabilityReason identifies the specific structural violation that
// makes a document unrepairable.
type UnrepairabilityReason string

const (
	ReasonCompetingRoots      UnrepairabilityReason = "competing_roots"
	ReasonNoStructuralAnchor  UnrepairabilityReason = "no_structural_anchor"
	ReasonMultipleH1NoRoot    UnrepairabilityReason = "multiple_h1_no_root"
	ReasonImpliedMultipleDocs UnrepairabilityReason = "implied_multiple_docs"
	ReasonAmbiguousDOM        UnrepairabilityReason = "ambiguous_dom"
)

// RepairableResult is the verdict isRepairable returns: whether the document
// can proceed to structural cleanup, and if not, why.
type RepairableResult struct {
	Repairable bool
	Reason     UnrepairabilityReason
}

type headingInfo struct {
	level int
	node  *html.Node
}

// isRepairable runs the structural checks a document must pass before
// heading renumbering and node dedup are worth attempting. Each check maps
// to one invariant this stage enforces:
//
//   - competing roots: more than one <main>, or sibling <article>s
//   - no structural anchor: no headings and no main/article/section
//   - multiple H1 without a root: two or more <h1>s sharing the same parent
//   - implied multiple documents: more than one H1 each followed by its own
//     H1-to-H1 subtree of further headings
//   - ambiguous DOM: more than two article/section elements nested deep
//     enough that a single logical document boundary can't be told apart
func isRepairable(doc *html.Node) RepairableResult {
	docQuery := goquery.NewDocumentFromNode(doc)

	if hasCompetingDocumentRoots(docQuery) {
		return RepairableResult{Reason: ReasonCompetingRoots}
	}

	headings := extractHeadings(docQuery)
	if len(headings) == 0 && !hasStructuralAnchors(docQuery) {
		return RepairableResult{Reason: ReasonNoStructuralAnchor}
	}

	if hasMultipleH1WithoutRoot(headings) {
		return RepairableResult{Reason: ReasonMultipleH1NoRoot}
	}

	if impliesMultipleDocuments(headings) {
		return RepairableResult{Reason: ReasonImpliedMultipleDocs}
	}

	if hasAmbiguousNesting(docQuery) {
		return RepairableResult{Reason: ReasonAmbiguousDOM}
	}

	return RepairableResult{Repairable: true}
}

func hasCompetingDocumentRoots(doc *goquery.Document) bool {
	if doc.Find("main").Length() > 1 {
		return true
	}
	return hasSiblingsOfTag(doc, "article")
}

// hasSiblingsOfTag reports whether two or more elements matching tag share
// the same parent.
func hasSiblingsOfTag(doc *goquery.Document, tag string) bool {
	counts := make(map[*html.Node]int)
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if node := s.Get(0); node != nil && node.Parent != nil {
			counts[node.Parent]++
		}
	})
	for _, n := range counts {
		if n > 1 {
			return true
		}
	}
	return false
}

func extractHeadings(doc *goquery.Document) []headingInfo {
	var headings []headingInfo
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil || len(node.Data) != 2 || node.Data[0] != 'h' {
			return
		}
		headings = append(headings, headingInfo{level: int(node.Data[1] - '0'), node: node})
	})
	return headings
}

func hasStructuralAnchors(doc *goquery.Document) bool {
	return doc.Find("article").Length() > 0 ||
		doc.Find("main").Length() > 0 ||
		doc.Find("section").Length() > 0
}

// hasMultipleH1WithoutRoot treats sibling H1s (two or more sharing the same
// parent element) as ambiguous; H1s under different parents pass.
func hasMultipleH1WithoutRoot(headings []headingInfo) bool {
	var h1Parents []*html.Node
	for _, h := range headings {
		if h.level == 1 && h.node.Parent != nil {
			h1Parents = append(h1Parents, h.node.Parent)
		}
	}
	if len(h1Parents) <= 1 {
		return false
	}
	seen := make(map[*html.Node]bool)
	for _, parent := range h1Parents {
		if seen[parent] {
			return true
		}
		seen[parent] = true
	}
	return false
}

// impliesMultipleDocuments flags two or more H1s that each head a subtree
// containing further nested headings — a sign the page concatenates
// multiple independent documents rather than one with subsections.
func impliesMultipleDocuments(headings []headingInfo) bool {
	h1Count := 0
	substantialCount := 0
	sectionHeadings := 0
	for i, h := range headings {
		if h.level == 1 {
			if i > 0 && sectionHeadings >= 2 {
				substantialCount++
			}
			h1Count++
			sectionHeadings = 0
			continue
		}
		sectionHeadings++
	}
	if sectionHeadings >= 2 {
		substantialCount++
	}
	return h1Count >= 2 && substantialCount >= 2
}

// hasAmbiguousNesting flags documents with more than two article/section
// elements nested more than three semantic containers deep, where a single coherent document boundary can no
// longer be told apart from the markup alone.
func hasAmbiguousNesting(doc *goquery.Document) bool {
	conflicting := 0
	doc.Find("article, section").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil {
			return
		}
		depth := 0
		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if parent.Data == "article" || parent.Data == "section" {
				depth++
			}
		}
		if depth > 3 {
			conflicting++
		}
	})
	return conflicting > 2
}

// isMeaningfulElement returns true if the element type should be considered
// for deduplication. Headings and other structural anchors are never
// deduplicated even if byte-identical, since repeated section markers are
// legitimate.
func isMeaningfulElement(tag string) bool {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return false
	}
	switch tag {
	case "main", "article", "header", "footer", "nav", "aside":
		return false
	default:
		return true
	}
}

// nodeSignature builds a structural fingerprint for duplicate detection:
// tag, attributes, and a hash of descendant content.
func nodeSignature(node *html.Node) string {
	if node == nil {
		return ""
	}
	var sig strings.Builder
	sig.WriteByte(byte(node.Type))
	sig.WriteString(node.Data)
	sig.WriteByte('|')
	for _, attr := range node.Attr {
		sig.WriteString(attr.Key)
		sig.WriteByte('=')
		sig.WriteString(attr.Val)
		sig.WriteByte(',')
	}
	sig.WriteByte('|')
	writeContentDigest(&sig, node)
	return sig.String()
}

func writeContentDigest(sig *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.ElementNode:
		sig.WriteString(node.Data)
	case html.TextNode:
		sig.WriteString(strings.TrimSpace(node.Data))
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeContentDigest(sig, child)
	}
}
