package scope

import "github.com/nyawc-go/crawler/internal/crawlreq"

// Options is the subset of CrawlerOptions the scope filter needs. It is a
// plain value so the filter can be exercised without importing the whole
// crawlopts package (crawlopts imports scope, not the reverse).
type Options struct {
	RequestMethods        []crawlreq.Method
	ProtocolMustMatch      bool
	SubdomainMustMatch     bool
	HostnameMustMatch      bool
	TLDMustMatch           bool
	MaxDepth               *int
	IgnoreSimilarRequests  bool
}

func (o Options) methodAllowed(m crawlreq.Method) bool {
	if len(o.RequestMethods) == 0 {
		return true
	}
	for _, allowed := range o.RequestMethods {
		if allowed == m {
			return true
		}
	}
	return false
}
