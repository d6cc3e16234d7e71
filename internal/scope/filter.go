// Package scope implements the composed admission predicate a freshly
// discovered Request must pass before the Scheduler enqueues it: method,
// protocol, subdomain, hostname, TLD, depth, dedup, and similarity.
package scope

import (
	"github.com/nyawc-go/crawler/internal/crawlreq"
)

// Filter composes the scope predicates of §4.2 against a seed Request. It
// is otherwise a pure function of (candidate, options, already-queued,
// classifier) — its only side effect is recording an admitted candidate in
// the Classifier's seen-set.
type Filter struct {
	options    Options
	classifier *Classifier
}

func NewFilter(options Options, classifier *Classifier) *Filter {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Filter{options: options, classifier: classifier}
}

// alreadyQueued reports whether an equivalent Request has already been
// admitted. Implemented as an interface so Filter does not depend on the
// queue package's concrete type.
type alreadyQueued interface {
	HasRequest(r crawlreq.Request) bool
}

// Admit decides whether candidate, discovered while processing seed,
// should be enqueued. It evaluates predicates cheapest-first so an early
// rejection never reaches the classifier (and therefore never mutates its
// seen-set) — rejected candidates leave no trace, matching §4.2's "pure
// function" requirement.
func (f *Filter) Admit(candidate crawlreq.Request, seed crawlreq.Request, queued alreadyQueued) bool {
	if !f.options.methodAllowed(candidate.Method()) {
		return false
	}

	seedURL, candURL := seed.URL(), candidate.URL()

	if f.options.ProtocolMustMatch && candURL.Scheme != seedURL.Scheme {
		return false
	}

	seedSub, seedName, seedTLD := hostParts(seedURL.Hostname())
	candSub, candName, candTLD := hostParts(candURL.Hostname())

	if f.options.SubdomainMustMatch && candSub != seedSub {
		return false
	}
	if f.options.HostnameMustMatch && candName != seedName {
		return false
	}
	if f.options.TLDMustMatch && candTLD != seedTLD {
		return false
	}

	if f.options.MaxDepth != nil && candidate.Depth() > *f.options.MaxDepth {
		return false
	}

	if queued.HasRequest(candidate) {
		return false
	}

	if f.options.IgnoreSimilarRequests && !f.classifier.Admit(candidate) {
		return false
	}

	return true
}
