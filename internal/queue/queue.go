// Package queue holds every QueueItem ever admitted to a crawl, indexed by
// its five disjoint lifecycle buckets (see crawlreq.Status).
package queue

import (
	"fmt"

	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/frontier"
)

var allStatuses = []crawlreq.Status{
	crawlreq.StatusQueued,
	crawlreq.StatusInProgress,
	crawlreq.StatusFinished,
	crawlreq.StatusErrored,
	crawlreq.StatusCancelled,
}

// bucket is a FIFO-ordered set of hashes belonging to one status, backed by
// the same FIFOQueue the frontier package already provides for ordering.
type bucket struct {
	order frontier.FIFOQueue[string]
}

func (b *bucket) append(hash string) {
	b.order.Enqueue(hash)
}

// popFront removes and returns the first hash in FIFO order.
func (b *bucket) popFront() (string, bool) {
	return b.order.Dequeue()
}

// remove deletes hash from anywhere in the bucket, preserving the order of
// the remainder. Used when an IN_PROGRESS item (not necessarily the oldest)
// finishes out of order.
func (b *bucket) remove(hash string) bool {
	for i, h := range b.order {
		if h == hash {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return true
		}
	}
	return false
}

func (b *bucket) hashes() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Queue is the in-memory, single-crawl store of QueueItems. All mutation
// methods assume the caller already holds whatever external lock protects
// concurrent access (the Scheduler's callback lock, per the concurrency
// model) — Queue itself performs no locking, so it can be exercised
// synchronously in tests without fakes.
type Queue struct {
	buckets map[crawlreq.Status]*bucket
	items   map[string]crawlreq.QueueItem // hash -> item, independent of bucket
	index   map[string]crawlreq.Status    // hash -> current status
	total   int
}

// New constructs an empty Queue.
func New() *Queue {
	q := &Queue{
		buckets: make(map[crawlreq.Status]*bucket, len(allStatuses)),
		items:   make(map[string]crawlreq.QueueItem),
		index:   make(map[string]crawlreq.Status),
	}
	for _, s := range allStatuses {
		q.buckets[s] = &bucket{}
	}
	return q
}

// HasRequest reports whether a Request with the same identity hash as r is
// already present in any bucket.
func (q *Queue) HasRequest(r crawlreq.Request) bool {
	_, exists := q.index[crawlreq.Hash(r)]
	return exists
}

// AddRequest admits a new Request into StatusQueued and returns its
// QueueItem. Callers must check HasRequest first; AddRequest does not
// deduplicate on its own (that policy decision belongs to the scope
// filter, per the component design).
func (q *Queue) AddRequest(r crawlreq.Request) crawlreq.QueueItem {
	item := crawlreq.NewQueueItem(r)
	q.items[item.Hash()] = item
	q.index[item.Hash()] = crawlreq.StatusQueued
	q.buckets[crawlreq.StatusQueued].append(item.Hash())
	q.total++
	return item
}

// GetFirst returns the oldest item in the given bucket without removing it
// from the index (it remains addressable by hash until Move is called).
func (q *Queue) GetFirst(status crawlreq.Status) (crawlreq.QueueItem, bool) {
	hashes := q.buckets[status].hashes()
	if len(hashes) == 0 {
		return crawlreq.QueueItem{}, false
	}
	return q.items[hashes[0]], true
}

// DequeueFirst removes and returns the oldest item in the given bucket,
// leaving it present in Queue's item table but absent from every bucket
// until the caller calls Move to re-file it. Used by the scheduler to claim
// one QUEUED item for dispatch.
func (q *Queue) DequeueFirst(status crawlreq.Status) (crawlreq.QueueItem, bool) {
	hash, ok := q.buckets[status].popFront()
	if !ok {
		return crawlreq.QueueItem{}, false
	}
	return q.items[hash], true
}

// GetAll returns every item currently in the given bucket, oldest first.
func (q *Queue) GetAll(status crawlreq.Status) []crawlreq.QueueItem {
	hashes := q.buckets[status].hashes()
	out := make([]crawlreq.QueueItem, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, q.items[h])
	}
	return out
}

// Get returns the item with the given hash, if it has ever been admitted.
func (q *Queue) Get(hash string) (crawlreq.QueueItem, bool) {
	item, ok := q.items[hash]
	return item, ok
}

// Move reclassifies item into newStatus, updating both the bucket index and
// the stored item (e.g. to attach a Response). It removes item from
// whichever bucket currently holds it, if any — this makes Move safe to
// call both on an item still resident in a bucket (GetFirst path) and on
// one already popped via DequeueFirst.
func (q *Queue) Move(item crawlreq.QueueItem, newStatus crawlreq.Status) error {
	hash := item.Hash()
	current, exists := q.index[hash]
	if !exists {
		return fmt.Errorf("queue: move: unknown item %q", hash)
	}

	q.buckets[current].remove(hash)
	q.buckets[newStatus].append(hash)
	q.index[hash] = newStatus
	q.items[hash] = item.WithStatus(newStatus)
	return nil
}

// MoveBulk reclassifies every item currently in any of fromStatuses into
// newStatus, in bucket order. Used for crawler_stop's QUEUED/IN_PROGRESS ->
// CANCELLED sweep.
func (q *Queue) MoveBulk(fromStatuses []crawlreq.Status, newStatus crawlreq.Status) {
	for _, from := range fromStatuses {
		for _, hash := range q.buckets[from].hashes() {
			item := q.items[hash]
			_ = q.Move(item, newStatus)
		}
	}
}

// CountTotal returns the number of QueueItems ever admitted, regardless of
// current status.
func (q *Queue) CountTotal() int {
	return q.total
}

// CountInStatus returns the number of items currently in the given bucket.
func (q *Queue) CountInStatus(status crawlreq.Status) int {
	return len(q.buckets[status].order)
}

// GetProgress returns the percentage, in [0, 100], of admitted items that
// have reached a terminal state.
func (q *Queue) GetProgress() float64 {
	if q.total == 0 {
		return 0
	}
	done := q.CountInStatus(crawlreq.StatusFinished) +
		q.CountInStatus(crawlreq.StatusErrored) +
		q.CountInStatus(crawlreq.StatusCancelled)
	return float64(done) / float64(q.total) * 100
}
