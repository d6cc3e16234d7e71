package fetcher

import (
	"net/http"
	"net/url"
	"time"
)

// Identity carries the per-crawl HTTP identity a Fetcher patches onto every
// Request before dialing: headers, cookies, auth, proxy, and the
// per-request timeout. It corresponds to CrawlerOptions' identity surface.
type Identity struct {
	UserAgent string
	Headers   map[string]string
	Cookies   []*http.Cookie
	Auth      *BasicAuth
	Proxy     *url.URL
	Timeout   time.Duration
}

type BasicAuth struct {
	Username string
	Password string
}

// FormElement describes one input/select/textarea discovered inside a
// <form>, for the form_before_autofill/form_after_autofill hooks to
// inspect and, if desired, override.
type FormElement struct {
	Name        string
	Type        string // "text", "email", "password", "checkbox", "select", "hidden", ...
	TagName     string // "input", "select", "textarea"
	Value       string
	Options     []string // <option> values, for <select>
	Placeholder string
}

// NewFormElementForTest constructs a FormElement directly for tests that
// exercise the autofill hooks without parsing real HTML.
func NewFormElementForTest(name, typ, tag, value string, options []string) FormElement {
	return FormElement{Name: name, Type: typ, TagName: tag, Value: value, Options: options}
}
