package scope

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/frontier"
)

var digitRun = regexp.MustCompile(`\d+`)

// featureVector collapses a Request into the string this classifier treats
// as its similarity class: method, path segments with digit-runs replaced
// by a placeholder, and sorted query parameter names (values are ignored —
// only the shape of the parameter set matters).
func featureVector(r crawlreq.Request) string {
	u := r.URL()

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		segments[i] = digitRun.ReplaceAllString(seg, "#")
	}

	names := make([]string, 0, len(u.Query()))
	for k := range u.Query() {
		names = append(names, k)
	}
	sort.Strings(names)

	return string(r.Method()) + "|" + strings.Join(segments, "/") + "|" + strings.Join(names, ",")
}

// Classifier suppresses near-duplicate Requests: the first Request to map
// to a given feature vector is admitted, every later one sharing that
// vector is reported as similar. It is safe for concurrent use; the
// Scheduler's callback lock makes that safety redundant in this repo, but
// the classifier is also useful standalone (e.g. CLI dry-run preview)
// where no external lock is held.
type Classifier struct {
	mu   sync.Mutex
	seen frontier.Set[string]
}

func NewClassifier() *Classifier {
	return &Classifier{seen: frontier.NewSet[string]()}
}

// Admit reports whether r is the first-seen representative of its
// similarity class, and records it as seen if so. A Request that is not
// the first in its class returns false and leaves the seen-set unchanged —
// matching the §4.2.1 first-admitted-wins tie-break.
func (c *Classifier) Admit(r crawlreq.Request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	vector := featureVector(r)
	if c.seen.Contains(vector) {
		return false
	}
	c.seen.Add(vector)
	return true
}

// Size reports how many distinct similarity classes have been observed.
func (c *Classifier) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen.Size()
}
