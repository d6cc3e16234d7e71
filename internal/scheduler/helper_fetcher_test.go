package scheduler_test

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/fetcher"
	"github.com/nyawc-go/crawler/pkg/failure"
)

// fakeFetcher is a scripted Fetcher: it returns the children and error
// registered for a given request URL, recording every call it receives.
type fakeFetcher struct {
	mu       sync.Mutex
	children map[string][]crawlreq.Request
	errors   map[string]failure.ClassifiedError
	calls    []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		children: map[string][]crawlreq.Request{},
		errors:   map[string]failure.ClassifiedError{},
	}
}

func (f *fakeFetcher) withChildren(seedURL string, children ...crawlreq.Request) *fakeFetcher {
	f.children[seedURL] = children
	return f
}

func (f *fakeFetcher) withError(seedURL string, err failure.ClassifiedError) *fakeFetcher {
	f.errors[seedURL] = err
	return f
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) Fetch(ctx context.Context, item crawlreq.QueueItem, identity fetcher.Identity, hooks fetcher.Hooks) (crawlreq.Response, []crawlreq.Request, failure.ClassifiedError) {
	key := item.Request().URL().String()

	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if hooks.BeforeStart != nil {
		hooks.BeforeStart(item)
	}
	if hooks.AfterFinish != nil {
		defer hooks.AfterFinish(item)
	}

	if err, ok := f.errors[key]; ok {
		return crawlreq.Response{}, nil, err
	}

	resp := crawlreq.NewResponse(200, map[string]string{"Content-Type": "text/html"}, nil, item.Request().URL())
	return resp, f.children[key], nil
}

func childRequest(t *testing.T, raw string) crawlreq.Request {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid test URL %q: %v", raw, err)
	}
	return crawlreq.NewRequest(crawlreq.MethodGet, *u).WithDepth(1)
}
