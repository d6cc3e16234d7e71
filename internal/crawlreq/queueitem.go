package crawlreq

import (
	"fmt"

	"github.com/nyawc-go/crawler/pkg/hashutil"
	"github.com/nyawc-go/crawler/pkg/urlutil"
)

// Status is a QueueItem's position in its lifecycle. See NewQueueItem and
// the Queue package for the transitions a Scheduler is allowed to perform.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusErrored    Status = "ERRORED"
	StatusCancelled  Status = "CANCELLED"
)

// QueueItem wraps one Request with its lifecycle status and, once fetched,
// its Response. Its hash is computed once at construction and never
// mutated; two Requests that hash identically are considered the same item
// for dedup purposes.
type QueueItem struct {
	request  Request
	response *Response
	status   Status
	hash     string
}

// HashAlgo selects the digest used for QueueItem identity hashing. BLAKE3 is
// the default; SHA-256 remains available for
// environments that prefer a widely-audited standard algorithm.
var HashAlgo hashutil.HashAlgo = hashutil.HashAlgoBLAKE3

// NewQueueItem constructs a QueueItem in StatusQueued for the given Request.
func NewQueueItem(r Request) QueueItem {
	return QueueItem{
		request: r,
		status:  StatusQueued,
		hash:    Hash(r),
	}
}

// Hash computes the stable identity hash of a Request: method plus the
// hash-normalized URL (see urlutil.CanonicalizeForHash) plus, for
// form-encoded requests, the canonicalized form body. Two requests with the
// same hash are treated as the same QueueItem by Queue.HasRequest.
func Hash(r Request) string {
	u := urlutil.CanonicalizeForHash(r.URL())

	material := string(r.Method()) + "\x00" + u.String()
	if form := r.Form(); len(form) > 0 {
		material += "\x00" + form.Encode()
	} else if body := r.Body(); len(body) > 0 {
		material += "\x00" + string(body)
	}

	digest, err := hashutil.HashBytes([]byte(material), HashAlgo)
	if err != nil {
		// HashAlgo is a package-level var validated at assignment sites;
		// an unsupported algorithm here is a programming error, not a
		// runtime condition callers can recover from.
		panic(fmt.Sprintf("crawlreq: %v", err))
	}
	return digest
}

func (q QueueItem) Request() Request {
	return q.request
}

func (q QueueItem) Response() *Response {
	if q.response == nil {
		return nil
	}
	cp := *q.response
	return &cp
}

func (q QueueItem) Status() Status {
	return q.status
}

func (q QueueItem) Hash() string {
	return q.hash
}

func (q QueueItem) Depth() int {
	return q.request.Depth()
}

// WithResponse returns a copy of the item carrying the given Response.
func (q QueueItem) WithResponse(resp Response) QueueItem {
	q.response = &resp
	return q
}

// WithStatus returns a copy of the item transitioned to the given status.
// Validity of the transition is the Queue's responsibility, not this type's.
func (q QueueItem) WithStatus(status Status) QueueItem {
	q.status = status
	return q
}

// IsTerminal reports whether status is one from which no further
// transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusErrored || s == StatusCancelled
}
