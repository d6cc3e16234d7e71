// Package crawlcallback bundles the user-visible hooks a Scheduler
// dispatches and isolates whatever they panic or return behind a single
// CallbackError, so one misbehaving callback never aborts a crawl.
package crawlcallback

import (
	"time"

	"github.com/nyawc-go/crawler/internal/action"
	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/fetcher"
	"github.com/nyawc-go/crawler/internal/queue"
	"github.com/nyawc-go/crawler/internal/telemetry"
)

// Callbacks is the full hook surface of §6's callback contract table. Every
// field is optional; a nil field is treated as a no-op returning
// action.None.
type Callbacks struct {
	BeforeStart                func()
	AfterFinish                func(q *queue.Queue)
	RequestBeforeStart         func(q *queue.Queue, item crawlreq.QueueItem) action.Action
	RequestAfterFinish         func(q *queue.Queue, item crawlreq.QueueItem, newItems []crawlreq.QueueItem) action.Action
	RequestInThreadBeforeStart func(item crawlreq.QueueItem)
	RequestInThreadAfterFinish func(item crawlreq.QueueItem)
	RequestOnError             func(item crawlreq.QueueItem, message string)
	FormBeforeAutofill         func(item crawlreq.QueueItem, elements []fetcher.FormElement, formData map[string][]string) action.Action
	FormAfterAutofill          func(item crawlreq.QueueItem, elements []fetcher.FormElement, formData map[string][]string)
}

// Dispatcher invokes Callbacks, recovering any panic and isolating any
// CallbackError into a metadata record rather than letting it escape to
// the caller. It is held by the Scheduler and constructed once per crawl.
type Dispatcher struct {
	callbacks Callbacks
	sink      telemetry.MetadataSink
}

// NewDispatcher constructs a Dispatcher. A nil sink is replaced with
// telemetry.NoopSink{}.
func NewDispatcher(callbacks Callbacks, sink telemetry.MetadataSink) *Dispatcher {
	if sink == nil {
		sink = telemetry.NoopSink{}
	}
	return &Dispatcher{callbacks: callbacks, sink: sink}
}

// recordCallbackError reports a recovered panic or returned error from hook
// without ever propagating it — per §7, a CallbackError is never fatal.
func (d *Dispatcher) recordCallbackError(hook string, r any) {
	err := &CallbackError{Hook: hook, Message: errString(r)}
	d.sink.RecordError(time.Now(), "crawlcallback", hook, telemetry.CauseInvariantViolation, err.Error(), nil)
}

func errString(r any) string {
	if e, ok := r.(error); ok {
		return e.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "panic in user callback"
}

// BeforeStart invokes crawler_before_start, per §4.5 step 2.
func (d *Dispatcher) BeforeStart() {
	if d.callbacks.BeforeStart == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.recordCallbackError("crawler_before_start", r)
		}
	}()
	d.callbacks.BeforeStart()
}

// AfterFinish invokes crawler_after_finish, per crawler_stop.
func (d *Dispatcher) AfterFinish(q *queue.Queue) {
	if d.callbacks.AfterFinish == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.recordCallbackError("crawler_after_finish", r)
		}
	}()
	d.callbacks.AfterFinish(q)
}

// RequestBeforeStart invokes request_before_start under the scheduler's
// callback lock. A panic or nil callback resolves to action.None.
func (d *Dispatcher) RequestBeforeStart(q *queue.Queue, item crawlreq.QueueItem) (act action.Action) {
	if d.callbacks.RequestBeforeStart == nil {
		return action.None
	}
	defer func() {
		if r := recover(); r != nil {
			d.recordCallbackError("request_before_start", r)
			act = action.None
		}
	}()
	return d.callbacks.RequestBeforeStart(q, item)
}

// RequestAfterFinish invokes request_after_finish under the scheduler's
// callback lock. A panic or nil callback resolves to action.None.
func (d *Dispatcher) RequestAfterFinish(q *queue.Queue, item crawlreq.QueueItem, newItems []crawlreq.QueueItem) (act action.Action) {
	if d.callbacks.RequestAfterFinish == nil {
		return action.None
	}
	defer func() {
		if r := recover(); r != nil {
			d.recordCallbackError("request_after_finish", r)
			act = action.None
		}
	}()
	return d.callbacks.RequestAfterFinish(q, item, newItems)
}

// RequestOnError invokes request_on_error under the scheduler's callback
// lock.
func (d *Dispatcher) RequestOnError(item crawlreq.QueueItem, message string) {
	if d.callbacks.RequestOnError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.recordCallbackError("request_on_error", r)
		}
	}()
	d.callbacks.RequestOnError(item, message)
}

// FetcherHooks adapts the worker-local subset of Callbacks into
// fetcher.Hooks, run by a worker goroutine without the callback lock held.
// Each hook is independently panic-isolated so one worker's callback
// failure cannot crash the worker goroutine.
func (d *Dispatcher) FetcherHooks() fetcher.Hooks {
	return fetcher.Hooks{
		BeforeStart: func(item crawlreq.QueueItem) {
			if d.callbacks.RequestInThreadBeforeStart == nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					d.recordCallbackError("request_in_thread_before_start", r)
				}
			}()
			d.callbacks.RequestInThreadBeforeStart(item)
		},
		AfterFinish: func(item crawlreq.QueueItem) {
			if d.callbacks.RequestInThreadAfterFinish == nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					d.recordCallbackError("request_in_thread_after_finish", r)
				}
			}()
			d.callbacks.RequestInThreadAfterFinish(item)
		},
		FormBeforeAutofill: func(item crawlreq.QueueItem, elements []fetcher.FormElement, formData map[string][]string) (act action.Action) {
			if d.callbacks.FormBeforeAutofill == nil {
				return action.None
			}
			defer func() {
				if r := recover(); r != nil {
					d.recordCallbackError("form_before_autofill", r)
					act = action.None
				}
			}()
			return d.callbacks.FormBeforeAutofill(item, elements, formData)
		},
		FormAfterAutofill: func(item crawlreq.QueueItem, elements []fetcher.FormElement, formData map[string][]string) {
			if d.callbacks.FormAfterAutofill == nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					d.recordCallbackError("form_after_autofill", r)
				}
			}()
			d.callbacks.FormAfterAutofill(item, elements, formData)
		},
	}
}
