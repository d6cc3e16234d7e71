package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

// voidElements are valid even with no children; they are never candidates
// for empty-node removal.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// structuralElements anchor document shape even when empty; higher layers
// decide whether an empty <main> is itself an extraction failure.
var structuralElements = map[string]bool{
	"html": true, "head": true, "body": true, "main": true,
}

func isEmptyNode(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(child.Data) != "" {
				return false
			}
		}
	}
	return true
}

func shouldRemoveEmptyElement(tag string) bool {
	return !voidElements[tag] && !structuralElements[tag]
}

// removeEmptyNodesBottomUp removes empty elements in a post-order traversal
// so nested empty containers are cleaned from the innermost out.
func removeEmptyNodesBottomUp(node *html.Node) {
	if node == nil {
		return
	}
	var children []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}
	for _, child := range children {
		removeEmptyNodesBottomUp(child)
	}
	if node.Type == html.ElementNode && isEmptyNode(node) && shouldRemoveEmptyElement(node.Data) {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// removeDuplicateNodes drops structurally identical siblings, keeping the
// first occurrence. Headings and other structural anchors are exempt via
// isMeaningfulElement.
func removeDuplicateNodes(root *html.Node) {
	seenByParent := make(map[*html.Node]map[string]bool)

	var traverse func(node *html.Node)
	traverse = func(node *html.Node) {
		if node == nil {
			return
		}
		if node.Type == html.ElementNode && isMeaningfulElement(node.Data) && node.Parent != nil {
			seen := seenByParent[node.Parent]
			if seen == nil {
				seen = make(map[string]bool)
				seenByParent[node.Parent] = seen
			}
			sig := nodeSignature(node)
			if seen[sig] {
				node.Parent.RemoveChild(node)
				return
			}
			seen[sig] = true
		}

		var children []*html.Node
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			children = append(children, child)
		}
		for _, child := range children {
			traverse(child)
		}
	}

	traverse(root)
}
