package scope_test

import (
	"net/url"
	"testing"

	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/scope"
	"github.com/stretchr/testify/require"
)

type fakeQueued map[string]bool

func (f fakeQueued) HasRequest(r crawlreq.Request) bool {
	return f[crawlreq.Hash(r)]
}

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func req(t *testing.T, raw string, depth int) crawlreq.Request {
	return crawlreq.NewRequest(crawlreq.MethodGet, mustURL(t, raw)).WithDepth(depth)
}

func TestAdmit_HostnameMustMatchRejectsOtherHost(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	f := scope.NewFilter(scope.Options{HostnameMustMatch: true}, nil)

	candidate := req(t, "https://other.test/page", 1)
	require.False(t, f.Admit(candidate, seed, fakeQueued{}))
}

func TestAdmit_MaxDepthClampsDeepCandidates(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	maxDepth := 1
	f := scope.NewFilter(scope.Options{MaxDepth: &maxDepth}, nil)

	within := req(t, "https://example.test/a", 1)
	beyond := req(t, "https://example.test/b", 2)

	require.True(t, f.Admit(within, seed, fakeQueued{}))
	require.False(t, f.Admit(beyond, seed, fakeQueued{}))
}

func TestAdmit_AlreadyQueuedRejected(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	candidate := req(t, "https://example.test/a", 1)
	f := scope.NewFilter(scope.Options{}, nil)

	alreadyIn := fakeQueued{crawlreq.Hash(candidate): true}
	require.False(t, f.Admit(candidate, seed, alreadyIn))
}

func TestAdmit_SimilarityFirstWins(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	f := scope.NewFilter(scope.Options{IgnoreSimilarRequests: true}, nil)

	first := req(t, "https://example.test/page/1", 1)
	second := req(t, "https://example.test/page/2", 1)
	third := req(t, "https://example.test/page/3", 1)
	other := req(t, "https://example.test/other/1", 1)

	require.True(t, f.Admit(first, seed, fakeQueued{}))
	require.False(t, f.Admit(second, seed, fakeQueued{}))
	require.False(t, f.Admit(third, seed, fakeQueued{}))
	require.True(t, f.Admit(other, seed, fakeQueued{}))
}

func TestAdmit_MethodNotAllowed(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	f := scope.NewFilter(scope.Options{RequestMethods: []crawlreq.Method{crawlreq.MethodGet}}, nil)

	postReq := crawlreq.NewRequest(crawlreq.MethodPost, mustURL(t, "https://example.test/submit")).WithDepth(1)
	require.False(t, f.Admit(postReq, seed, fakeQueued{}))
}

func TestAdmit_ProtocolMustMatch(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	f := scope.NewFilter(scope.Options{ProtocolMustMatch: true}, nil)

	insecure := req(t, "http://example.test/a", 1)
	require.False(t, f.Admit(insecure, seed, fakeQueued{}))
}

func TestAdmit_RejectedCandidateDoesNotConsumeSimilarityClass(t *testing.T) {
	seed := req(t, "https://example.test/", 0)
	f := scope.NewFilter(scope.Options{HostnameMustMatch: true, IgnoreSimilarRequests: true}, nil)

	// rejected on hostname before the similarity check runs
	f.Admit(req(t, "https://other.test/page/1", 1), seed, fakeQueued{})

	// same feature vector, correct hostname: must still be admitted since
	// the earlier rejection never touched the classifier's seen-set.
	require.True(t, f.Admit(req(t, "https://example.test/page/1", 1), seed, fakeQueued{}))
}
