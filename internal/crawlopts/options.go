// Package crawlopts provides CrawlerOptions, the single configuration
// surface a Scheduler is constructed from: scope predicates, HTTP identity,
// concurrency, callbacks, and misc/debug flags. It follows the same
// builder-plus-DTO pattern as internal/config.Config.
package crawlopts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/nyawc-go/crawler/internal/crawlcallback"
	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/fetcher"
	"github.com/nyawc-go/crawler/internal/scope"
)

// CrawlerOptions is the immutable, validated configuration a Scheduler is
// built from. Construct one via WithDefault(...).With*(...).Build().
type CrawlerOptions struct {
	//===============
	// Crawl scope
	//===============
	seedURL               url.URL
	requestMethods        []crawlreq.Method
	protocolMustMatch     bool
	subdomainMustMatch    bool
	hostnameMustMatch     bool
	tldMustMatch          bool
	maxDepth              *int
	ignoreSimilarRequests bool

	//===============
	// Identity
	//===============
	userAgent      string
	headers        map[string]string
	cookies        []*http.Cookie
	auth           *fetcher.BasicAuth
	proxy          *url.URL
	requestTimeout time.Duration

	//===============
	// Performance
	//===============
	maxThreads int

	//===============
	// Misc / debug
	//===============
	debug bool

	//===============
	// Callbacks (not part of the DTO: callbacks are code, never JSON)
	//===============
	callbacks crawlcallback.Callbacks
}

type optionsDTO struct {
	SeedURL               url.URL           `json:"seedUrl"`
	RequestMethods        []string          `json:"requestMethods,omitempty"`
	ProtocolMustMatch     bool              `json:"protocolMustMatch,omitempty"`
	SubdomainMustMatch    bool              `json:"subdomainMustMatch,omitempty"`
	HostnameMustMatch     bool              `json:"hostnameMustMatch,omitempty"`
	TLDMustMatch          bool              `json:"tldMustMatch,omitempty"`
	MaxDepth              *int              `json:"maxDepth,omitempty"`
	IgnoreSimilarRequests bool              `json:"ignoreSimilarRequests,omitempty"`
	UserAgent             string            `json:"userAgent,omitempty"`
	Headers               map[string]string `json:"headers,omitempty"`
	RequestTimeout        time.Duration     `json:"requestTimeout,omitempty"`
	MaxThreads            int               `json:"maxThreads,omitempty"`
	Debug                 bool              `json:"debug,omitempty"`
}

// WithDefault constructs a CrawlerOptions builder seeded at seedURL with
// the teacher-grounded defaults: GET-only, 8 worker threads, a 30s request
// timeout, and no scope restriction beyond subdomain/TLD/hostname parity
// left to the caller to enable.
func WithDefault(seedURL url.URL) *CrawlerOptions {
	return &CrawlerOptions{
		seedURL:        seedURL,
		requestMethods: []crawlreq.Method{crawlreq.MethodGet},
		userAgent:      "nyawc-crawler/1.0",
		headers:        map[string]string{},
		requestTimeout: 30 * time.Second,
		maxThreads:     8,
	}
}

func (o *CrawlerOptions) WithSeedURL(u url.URL) *CrawlerOptions {
	o.seedURL = u
	return o
}

func (o *CrawlerOptions) WithRequestMethods(methods []crawlreq.Method) *CrawlerOptions {
	o.requestMethods = methods
	return o
}

func (o *CrawlerOptions) WithProtocolMustMatch(v bool) *CrawlerOptions {
	o.protocolMustMatch = v
	return o
}

func (o *CrawlerOptions) WithSubdomainMustMatch(v bool) *CrawlerOptions {
	o.subdomainMustMatch = v
	return o
}

func (o *CrawlerOptions) WithHostnameMustMatch(v bool) *CrawlerOptions {
	o.hostnameMustMatch = v
	return o
}

func (o *CrawlerOptions) WithTLDMustMatch(v bool) *CrawlerOptions {
	o.tldMustMatch = v
	return o
}

func (o *CrawlerOptions) WithMaxDepth(depth int) *CrawlerOptions {
	o.maxDepth = &depth
	return o
}

func (o *CrawlerOptions) WithIgnoreSimilarRequests(v bool) *CrawlerOptions {
	o.ignoreSimilarRequests = v
	return o
}

func (o *CrawlerOptions) WithUserAgent(agent string) *CrawlerOptions {
	o.userAgent = agent
	return o
}

func (o *CrawlerOptions) WithHeader(key, value string) *CrawlerOptions {
	if o.headers == nil {
		o.headers = map[string]string{}
	}
	o.headers[key] = value
	return o
}

func (o *CrawlerOptions) WithCookies(cookies []*http.Cookie) *CrawlerOptions {
	o.cookies = cookies
	return o
}

func (o *CrawlerOptions) WithAuth(auth *fetcher.BasicAuth) *CrawlerOptions {
	o.auth = auth
	return o
}

func (o *CrawlerOptions) WithProxy(proxy *url.URL) *CrawlerOptions {
	o.proxy = proxy
	return o
}

func (o *CrawlerOptions) WithRequestTimeout(timeout time.Duration) *CrawlerOptions {
	o.requestTimeout = timeout
	return o
}

func (o *CrawlerOptions) WithMaxThreads(n int) *CrawlerOptions {
	o.maxThreads = n
	return o
}

func (o *CrawlerOptions) WithDebug(v bool) *CrawlerOptions {
	o.debug = v
	return o
}

func (o *CrawlerOptions) WithCallbacks(callbacks crawlcallback.Callbacks) *CrawlerOptions {
	o.callbacks = callbacks
	return o
}

// Build validates and returns the final CrawlerOptions value: a non-empty
// seed URL and at least one allowed request method are required, per
// §10.1. Raised as an OptionsError — a ConfigurationError per §7 — so the
// caller can fail synchronously before StartWith does any work.
func (o *CrawlerOptions) Build() (CrawlerOptions, error) {
	if o.seedURL.String() == "" {
		return CrawlerOptions{}, &OptionsError{Message: "seed URL is required", Cause: ErrInvalidOptions}
	}
	if len(o.requestMethods) == 0 {
		return CrawlerOptions{}, &OptionsError{Message: "at least one request method must be allowed", Cause: ErrInvalidOptions}
	}
	if o.maxThreads <= 0 {
		o.maxThreads = 1
	}
	return *o, nil
}

// WithOptionsFile loads a CrawlerOptions from a JSON file, layering it over
// WithDefault's baseline exactly the way internal/config.WithConfigFile
// layers a configDTO: non-zero DTO fields override the default.
func WithOptionsFile(path string) (CrawlerOptions, error) {
	if _, err := os.Stat(path); err != nil {
		return CrawlerOptions{}, &OptionsError{Message: path, Cause: ErrFileDoesNotExist}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return CrawlerOptions{}, &OptionsError{Message: path, Cause: fmt.Errorf("%w: %s", ErrReadOptionsFail, err)}
	}
	var dto optionsDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return CrawlerOptions{}, &OptionsError{Message: path, Cause: fmt.Errorf("%w: %s", ErrOptionsParsingFail, err)}
	}
	return newOptionsFromDTO(dto)
}

func newOptionsFromDTO(dto optionsDTO) (CrawlerOptions, error) {
	builder := WithDefault(dto.SeedURL)

	if len(dto.RequestMethods) > 0 {
		methods := make([]crawlreq.Method, 0, len(dto.RequestMethods))
		for _, m := range dto.RequestMethods {
			methods = append(methods, crawlreq.Method(m))
		}
		builder = builder.WithRequestMethods(methods)
	}
	builder = builder.
		WithProtocolMustMatch(dto.ProtocolMustMatch).
		WithSubdomainMustMatch(dto.SubdomainMustMatch).
		WithHostnameMustMatch(dto.HostnameMustMatch).
		WithTLDMustMatch(dto.TLDMustMatch).
		WithIgnoreSimilarRequests(dto.IgnoreSimilarRequests).
		WithDebug(dto.Debug)

	if dto.MaxDepth != nil {
		builder = builder.WithMaxDepth(*dto.MaxDepth)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	for k, v := range dto.Headers {
		builder = builder.WithHeader(k, v)
	}
	if dto.RequestTimeout != 0 {
		builder = builder.WithRequestTimeout(dto.RequestTimeout)
	}
	if dto.MaxThreads != 0 {
		builder = builder.WithMaxThreads(dto.MaxThreads)
	}

	return builder.Build()
}

func (o CrawlerOptions) SeedURL() url.URL {
	return o.seedURL
}

func (o CrawlerOptions) MaxThreads() int {
	return o.maxThreads
}

func (o CrawlerOptions) Debug() bool {
	return o.debug
}

func (o CrawlerOptions) Callbacks() crawlcallback.Callbacks {
	return o.callbacks
}

// ScopeOptions returns the subset of CrawlerOptions the scope filter needs,
// as a plain scope.Options value (defensive copy of RequestMethods).
func (o CrawlerOptions) ScopeOptions() scope.Options {
	methods := make([]crawlreq.Method, len(o.requestMethods))
	copy(methods, o.requestMethods)
	return scope.Options{
		RequestMethods:        methods,
		ProtocolMustMatch:     o.protocolMustMatch,
		SubdomainMustMatch:    o.subdomainMustMatch,
		HostnameMustMatch:     o.hostnameMustMatch,
		TLDMustMatch:          o.tldMustMatch,
		MaxDepth:              o.maxDepth,
		IgnoreSimilarRequests: o.ignoreSimilarRequests,
	}
}

// Identity returns the HTTP identity the Fetcher should patch onto every
// Request, as a defensive copy.
func (o CrawlerOptions) Identity() fetcher.Identity {
	headers := make(map[string]string, len(o.headers))
	for k, v := range o.headers {
		headers[k] = v
	}
	cookies := make([]*http.Cookie, len(o.cookies))
	copy(cookies, o.cookies)

	var auth *fetcher.BasicAuth
	if o.auth != nil {
		cp := *o.auth
		auth = &cp
	}
	var proxy *url.URL
	if o.proxy != nil {
		cp := *o.proxy
		proxy = &cp
	}

	return fetcher.Identity{
		UserAgent: o.userAgent,
		Headers:   headers,
		Cookies:   cookies,
		Auth:      auth,
		Proxy:     proxy,
		Timeout:   o.requestTimeout,
	}
}
