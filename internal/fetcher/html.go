package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/telemetry"
	"github.com/nyawc-go/crawler/pkg/failure"
)

/*
Responsibilities

  - Perform one HTTP request per Request, for any allow-listed method
  - Apply headers, cookies, auth, proxy, and the per-request timeout
  - Classify the response
  - Extract child Requests (links and forms) from an HTML response

There is deliberately no retry wrapping here: the core has no global retry
policy (§7) — a caller that wants retries re-enqueues from a callback. The
Fetcher never mutates the Queue; it only reports what it found.
*/
type HTTPFetcher struct {
	metadataSink telemetry.MetadataSink
}

func NewHTTPFetcher(metadataSink telemetry.MetadataSink) HTTPFetcher {
	if metadataSink == nil {
		metadataSink = telemetry.NoopSink{}
	}
	return HTTPFetcher{metadataSink: metadataSink}
}

var _ Fetcher = (*HTTPFetcher)(nil)

func (h *HTTPFetcher) Fetch(
	ctx context.Context,
	item crawlreq.QueueItem,
	identity Identity,
	hooks Hooks,
) (crawlreq.Response, []crawlreq.Request, failure.ClassifiedError) {
	if hooks.BeforeStart != nil {
		hooks.BeforeStart(item)
	}

	req := item.Request()
	start := time.Now()

	resp, err := h.performFetch(ctx, req, identity)
	duration := time.Since(start)

	contentType := ""
	statusCode := 0
	if err == nil {
		statusCode = resp.StatusCode()
		contentType = resp.ContentType()
	}

	h.metadataSink.RecordFetch(req.URL().String(), statusCode, duration, contentType, 0, req.Depth())

	if err != nil {
		var fetchErr *FetchError
		if asFetchError(err, &fetchErr) {
			h.metadataSink.RecordError(
				time.Now(),
				"fetcher",
				"HTTPFetcher.Fetch",
				mapFetchErrorToMetadataCause(fetchErr),
				err.Error(),
				[]telemetry.Attribute{telemetry.NewAttr(telemetry.AttrURL, req.URL().String())},
			)
		}
		if hooks.AfterFinish != nil {
			hooks.AfterFinish(item)
		}
		return crawlreq.Response{}, nil, err
	}

	var children []crawlreq.Request
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		withResponse := item.WithResponse(resp)
		extracted, extractErr := extractChildren(resp.Body(), resp.FinalURL(), req.Depth(), hooks, withResponse)
		if extractErr != nil {
			h.metadataSink.RecordError(
				time.Now(),
				"fetcher",
				"HTTPFetcher.Fetch.extract",
				telemetry.CauseContentInvalid,
				extractErr.Error(),
				[]telemetry.Attribute{telemetry.NewAttr(telemetry.AttrURL, req.URL().String())},
			)
			if hooks.AfterFinish != nil {
				hooks.AfterFinish(item)
			}
			return crawlreq.Response{}, nil, extractErr
		}
		children = extracted
	}

	if hooks.AfterFinish != nil {
		hooks.AfterFinish(item)
	}

	return resp, children, nil
}

func asFetchError(err failure.ClassifiedError, target **FetchError) bool {
	if fe, ok := err.(*FetchError); ok {
		*target = fe
		return true
	}
	return false
}

func (h *HTTPFetcher) performFetch(ctx context.Context, req crawlreq.Request, identity Identity) (crawlreq.Response, failure.ClassifiedError) {
	u := req.URL()

	timeout := identity.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if form := req.Form(); len(form) > 0 {
		bodyReader = strings.NewReader(form.Encode())
	} else if body := req.Body(); len(body) > 0 {
		bodyReader = strings.NewReader(string(body))
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, string(req.Method()), u.String(), bodyReader)
	if err != nil {
		return crawlreq.Response{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
		}
	}

	applyIdentity(httpReq, identity, req)

	client := &http.Client{Timeout: timeout}
	if identity.Proxy != nil {
		client.Transport = &http.Transport{Proxy: http.ProxyURL(identity.Proxy)}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return crawlreq.Response{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	// Every HTTP status is a successful fetch (§7): a 500, 429, 403, or
	// 3xx response still becomes a Response with its body and headers
	// attached, so its links/forms get extracted and the callbacks decide
	// what, if anything, counts as failure. Only transport/parse/timeout
	// and the body-read error below are ClassifiedError here.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return crawlreq.Response{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	return crawlreq.NewResponse(resp.StatusCode, headers, body, finalURL), nil
}

func applyIdentity(httpReq *http.Request, identity Identity, req crawlreq.Request) {
	for key, value := range requestHeaders(identity.UserAgent) {
		httpReq.Header.Set(key, value)
	}
	for key, value := range identity.Headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers() {
		httpReq.Header.Set(key, value)
	}
	if req.Form() != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range identity.Cookies {
		httpReq.AddCookie(c)
	}
	if identity.Auth != nil {
		httpReq.SetBasicAuth(identity.Auth.Username, identity.Auth.Password)
	}
}

func requestHeaders(userAgent string) map[string]string {
	if userAgent == "" {
		userAgent = "nyawc-go-crawler/1.0"
	}
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
