package fetcher

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyawc-go/crawler/internal/action"
	"github.com/nyawc-go/crawler/internal/crawlreq"
	"golang.org/x/net/html"
)

// allowedScheme is the Open Question resolution of SPEC_FULL §9: a
// non-HTTP(S) child URL (mailto:, javascript:, tel:, data:, ...) is
// rejected silently at parse time here. It never becomes a Request, so it
// never reaches the scope filter and never triggers a callback or error.
func allowedScheme(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// extractChildren parses an HTML body and returns every child Request it
// can discover: <a href>, <link>, <script src>, <img src>, <iframe src>,
// and one Request per <form>. base is the response's final URL, used to
// resolve relative references.
func extractChildren(body []byte, base url.URL, depth int, hooks Hooks, item crawlreq.QueueItem) ([]crawlreq.Request, *ExtractionError) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse HTML: " + err.Error(), Cause: "parse_failure"}
	}

	gqDoc := goquery.NewDocumentFromNode(doc)

	var children []crawlreq.Request
	seen := map[string]bool{}

	addLink := func(raw string) {
		resolved, ok := resolveURL(base, raw)
		if !ok || seen[resolved.String()] {
			return
		}
		seen[resolved.String()] = true
		children = append(children, crawlreq.NewRequest(crawlreq.MethodGet, resolved).WithDepth(depth+1))
	}

	gqDoc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addLink(href)
		}
	})
	gqDoc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addLink(href)
		}
	})
	gqDoc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addLink(src)
		}
	})
	gqDoc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addLink(src)
		}
	})
	gqDoc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addLink(src)
		}
	})

	gqDoc.Find("form").Each(func(_ int, s *goquery.Selection) {
		if req, ok := extractForm(s, base, depth, hooks, item); ok {
			children = append(children, req)
		}
	})

	return children, nil
}

func resolveURL(base url.URL, raw string) (url.URL, bool) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return url.URL{}, false
	}
	resolved := base.ResolveReference(ref)
	if !allowedScheme(resolved) {
		return url.URL{}, false
	}
	return *resolved, true
}

func extractForm(s *goquery.Selection, base url.URL, depth int, hooks Hooks, item crawlreq.QueueItem) (crawlreq.Request, bool) {
	method := crawlreq.MethodGet
	if m, ok := s.Attr("method"); ok && strings.EqualFold(m, "post") {
		method = crawlreq.MethodPost
	}

	actionAttr, _ := s.Attr("action")
	target, ok := resolveURL(base, actionAttr)
	if !ok {
		return crawlreq.Request{}, false
	}

	elements, formData := collectFormElements(s)
	for _, el := range elements {
		if el.Value != "" {
			formData[el.Name] = []string{el.Value}
		}
	}

	autofill := true
	if hooks.FormBeforeAutofill != nil {
		autofill = hooks.FormBeforeAutofill(item, elements, formData) != action.NoAutofillForm
	}
	if autofill {
		autofillFormValues(elements, formData)
	}
	if hooks.FormAfterAutofill != nil {
		hooks.FormAfterAutofill(item, elements, formData)
	}

	values := url.Values(formData)

	req := crawlreq.NewRequest(method, target).WithDepth(depth + 1)
	if method == crawlreq.MethodGet {
		q := target.Query()
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
		req = crawlreq.NewRequest(method, target).WithDepth(depth + 1)
	} else {
		req = req.WithForm(values)
	}

	return req, true
}

func collectFormElements(form *goquery.Selection) ([]FormElement, map[string][]string) {
	var elements []FormElement
	formData := map[string][]string{}

	form.Find("input,select,textarea").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			return
		}
		tag := goquery.NodeName(s)
		typ, _ := s.Attr("type")
		if typ == "" && tag == "input" {
			typ = "text"
		}
		value, _ := s.Attr("value")
		placeholder, _ := s.Attr("placeholder")

		var options []string
		if tag == "select" {
			s.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if v, ok := opt.Attr("value"); ok {
					options = append(options, v)
				} else {
					options = append(options, strings.TrimSpace(opt.Text()))
				}
			})
		}

		elements = append(elements, FormElement{
			Name:        name,
			Type:        typ,
			TagName:     tag,
			Value:       value,
			Options:     options,
			Placeholder: placeholder,
		})
	})

	return elements, formData
}

// autoFillValues is the built-in value table §4.4 describes: missing
// text/number/email-style fields are populated deterministically, selects
// pick their first option, and checkboxes default to checked.
var autoFillValues = map[string]string{
	"text":     "test",
	"email":    "test@example.com",
	"password": "Test1234!",
	"number":   "1",
	"tel":      "+10000000000",
	"url":      "https://example.test",
	"search":   "test",
	"date":     "2024-01-01",
}

func autofillFormValues(elements []FormElement, formData map[string][]string) {
	for _, el := range elements {
		if el.Value != "" {
			formData[el.Name] = []string{el.Value}
			continue
		}

		switch {
		case el.TagName == "select" && len(el.Options) > 0:
			formData[el.Name] = []string{el.Options[0]}
		case el.Type == "checkbox":
			formData[el.Name] = []string{"on"}
		case el.Type == "hidden":
			// leave as-is; hidden fields without a value carry no signal
		default:
			if v, ok := autoFillValues[el.Type]; ok {
				formData[el.Name] = []string{v}
			} else {
				formData[el.Name] = []string{autoFillValues["text"]}
			}
		}
	}
}
