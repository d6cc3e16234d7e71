// Package scheduler owns the Queue, bounds concurrency, dispatches
// callbacks, and drives a crawl from its seed Request to termination.
package scheduler

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/nyawc-go/crawler/internal/action"
	"github.com/nyawc-go/crawler/internal/crawlcallback"
	"github.com/nyawc-go/crawler/internal/crawlopts"
	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/fetcher"
	"github.com/nyawc-go/crawler/internal/queue"
	"github.com/nyawc-go/crawler/internal/scope"
	"github.com/nyawc-go/crawler/internal/telemetry"
)

// workerResult is how a worker goroutine hands its outcome back to the
// control goroutine — never by calling back into the Scheduler directly,
// per the concurrency model's ban on a cyclic worker/scheduler
// relationship.
type workerResult struct {
	item     crawlreq.QueueItem
	children []crawlreq.Request
	failed   bool
	errMsg   string
}

// Scheduler is the sole control-plane authority of a crawl: it is the only
// component that decides whether a QueueItem is promoted, admitted, or
// terminated.
type Scheduler struct {
	opts       crawlopts.CrawlerOptions
	queue      *queue.Queue
	filter     *scope.Filter
	fetcher    fetcher.Fetcher
	dispatcher *crawlcallback.Dispatcher
	sink       telemetry.MetadataSink
	gate       *concurrencyGate

	// mu is the single callback lock guarding Queue mutations, the
	// classifier's seen-set (via filter), and the three user-visible
	// scheduler callbacks. Worker-local hooks run without it.
	mu        sync.Mutex
	stopping  bool
	stopped   bool
	wg        sync.WaitGroup
	results   chan workerResult
	done      chan struct{}
	startedAt time.Time
}

// New constructs a Scheduler. fetcher and sink are required collaborators;
// opts must already have passed crawlopts.CrawlerOptions.Build().
func New(opts crawlopts.CrawlerOptions, f fetcher.Fetcher, sink telemetry.MetadataSink) *Scheduler {
	if sink == nil {
		sink = telemetry.NoopSink{}
	}
	classifier := scope.NewClassifier()
	q := queue.New()
	return &Scheduler{
		opts:       opts,
		queue:      q,
		filter:     scope.NewFilter(opts.ScopeOptions(), classifier),
		fetcher:    f,
		dispatcher: crawlcallback.NewDispatcher(opts.Callbacks(), sink),
		sink:       sink,
		gate:       newConcurrencyGate(opts.MaxThreads()),
		results:    make(chan workerResult, opts.MaxThreads()),
		done:       make(chan struct{}),
	}
}

// Queue exposes the crawl's QueueItem store, e.g. for reading
// Queue().GetAll(crawlreq.StatusFinished) once StartWith returns.
func (s *Scheduler) Queue() *queue.Queue {
	return s.queue
}

// StartWith admits seed and runs the crawl to completion: it blocks until
// every reachable item is terminal, an explicit DO_STOP_CRAWLING is
// returned by a callback, or ctx is cancelled (including via the installed
// interrupt signal handler).
func (s *Scheduler) StartWith(ctx context.Context, seed crawlreq.Request) {
	s.startedAt = time.Now()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if seed.Timeout() == 0 {
		seed = seed.WithTimeout(s.opts.Identity().Timeout)
	}

	s.mu.Lock()
	s.queue.AddRequest(seed)
	s.mu.Unlock()

	s.dispatcher.BeforeStart()

	go s.resultLoop(sigCtx)
	go func() {
		<-sigCtx.Done()
		s.Stop()
	}()

	s.spawnNewRequests(sigCtx)

	<-s.done
}

// Stop requests a graceful, idempotent shutdown: dispatch ceases
// immediately, but in-flight HTTP requests run to completion before the
// final CANCELLED sweep and crawler_after_finish fire.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

// resultLoop is the single consumer of worker completions, applying them
// to Queue state and callbacks under the callback lock (via onWorkerDone).
func (s *Scheduler) resultLoop(ctx context.Context) {
	for {
		select {
		case r, ok := <-s.results:
			if !ok {
				return
			}
			s.onWorkerDone(ctx, r)
		case <-s.done:
			s.drainResults(ctx)
			return
		}
	}
}

// drainResults applies any results already buffered before done closed, so
// a burst of near-simultaneous worker completions is never silently lost.
func (s *Scheduler) drainResults(ctx context.Context) {
	for {
		select {
		case r, ok := <-s.results:
			if !ok {
				return
			}
			s.onWorkerDone(ctx, r)
		default:
			return
		}
	}
}

// spawnNewRequests acquires the callback lock and promotes as many QUEUED
// items as the concurrency gate allows.
func (s *Scheduler) spawnNewRequests(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawnNewRequestsLocked(ctx)
}

// spawnNewRequestsLocked implements §4.5's spawn_new_requests. Caller must
// hold mu.
func (s *Scheduler) spawnNewRequestsLocked(ctx context.Context) {
	for !s.stopping {
		if !s.gate.tryAcquire() {
			break
		}
		item, ok := s.queue.DequeueFirst(crawlreq.StatusQueued)
		if !ok {
			s.gate.release()
			break
		}

		switch s.dispatcher.RequestBeforeStart(s.queue, item) {
		case action.StopCrawling:
			s.gate.release()
			_ = s.queue.Move(item, crawlreq.StatusQueued)
			s.stopping = true
		case action.SkipToNext:
			s.gate.release()
			_ = s.queue.Move(item, crawlreq.StatusFinished)
		default:
			_ = s.queue.Move(item, crawlreq.StatusInProgress)
			s.launchWorker(ctx, item)
		}
	}
	s.maybeFinishLocked()
}

// launchWorker runs one Fetcher.Fetch call on its own goroutine and hands
// the outcome to resultLoop over the results channel — never back into the
// Scheduler directly.
func (s *Scheduler) launchWorker(ctx context.Context, item crawlreq.QueueItem) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		hooks := s.dispatcher.FetcherHooks()
		resp, children, ferr := s.fetcher.Fetch(ctx, item, s.opts.Identity(), hooks)

		result := workerResult{item: item, children: children}
		if ferr != nil {
			result.failed = true
			result.errMsg = ferr.Error()
		} else {
			result.item = item.WithResponse(resp)
		}
		s.results <- result
	}()
}

// onWorkerDone implements §4.5's on_worker_done under the callback lock.
func (s *Scheduler) onWorkerDone(ctx context.Context, r workerResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gate.release()

	if s.stopping {
		s.maybeFinishLocked()
		return
	}

	if r.failed {
		_ = s.queue.Move(r.item, crawlreq.StatusErrored)
		s.dispatcher.RequestOnError(r.item, r.errMsg)
		if s.dispatcher.RequestAfterFinish(s.queue, r.item, nil) == action.StopCrawling {
			s.stopping = true
		}
		s.spawnNewRequestsLocked(ctx)
		return
	}

	admitted := make([]crawlreq.QueueItem, 0, len(r.children))
	for _, child := range r.children {
		if s.queue.HasRequest(child) {
			continue
		}
		if !s.filter.Admit(child, r.item.Request(), s.queue) {
			continue
		}
		admitted = append(admitted, s.queue.AddRequest(child))
	}
	_ = s.queue.Move(r.item, crawlreq.StatusFinished)

	if s.dispatcher.RequestAfterFinish(s.queue, r.item, admitted) == action.StopCrawling {
		s.stopping = true
	}
	s.spawnNewRequestsLocked(ctx)
}

// maybeFinishLocked ends the crawl once nothing is running and nothing is
// spawnable — either because the Queue is drained or because stopping was
// requested and every in-flight worker has already been accounted for.
// Caller must hold mu.
func (s *Scheduler) maybeFinishLocked() {
	if s.stopped || s.gate.inFlight() > 0 {
		return
	}
	s.finishLocked()
}

// finishLocked implements crawler_stop: idempotent, bulk-cancels whatever
// remains QUEUED/IN_PROGRESS, invokes crawler_after_finish, records final
// stats, and releases StartWith's caller.
func (s *Scheduler) finishLocked() {
	if s.stopped {
		return
	}
	s.queue.MoveBulk([]crawlreq.Status{crawlreq.StatusQueued, crawlreq.StatusInProgress}, crawlreq.StatusCancelled)
	s.dispatcher.AfterFinish(s.queue)
	s.sink.RecordCrawlStats(telemetry.CrawlStats{
		TotalPages:  s.queue.CountInStatus(crawlreq.StatusFinished),
		TotalErrors: s.queue.CountInStatus(crawlreq.StatusErrored),
		Duration:    time.Since(s.startedAt),
	})
	s.stopped = true
	close(s.done)
}
