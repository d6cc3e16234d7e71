// Package fetcher performs one Request's HTTP round-trip and extracts the
// child Requests (links and form submissions) discoverable from its
// response.
package fetcher

import (
	"context"

	"github.com/nyawc-go/crawler/internal/action"
	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/pkg/failure"
)

// Hooks are the worker-local callbacks the Fetcher invokes without any
// external lock held — request_in_thread_before_start,
// request_in_thread_after_finish, form_before_autofill, and
// form_after_autofill, per the concurrency model. All fields are optional.
type Hooks struct {
	BeforeStart        func(item crawlreq.QueueItem)
	AfterFinish        func(item crawlreq.QueueItem)
	FormBeforeAutofill func(item crawlreq.QueueItem, elements []FormElement, formData map[string][]string) action.Action
	FormAfterAutofill  func(item crawlreq.QueueItem, elements []FormElement, formData map[string][]string)
}

// Fetcher is one worker's unit of behavior: perform the Request, and
// report both the Response and every child Request discovered while
// parsing it.
type Fetcher interface {
	Fetch(ctx context.Context, item crawlreq.QueueItem, identity Identity, hooks Hooks) (crawlreq.Response, []crawlreq.Request, failure.ClassifiedError)
}
