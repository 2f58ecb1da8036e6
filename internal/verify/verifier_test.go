package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/worker"
)

var verifiedAt = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

const redditJSON = `{"data": {"children": [
	{"data": {"title": "Weather thread", "url": "https://reddit.com/r/india/1", "score": 500, "num_comments": 10, "created_utc": 1752573600.0, "subreddit": "india", "author": "a", "selftext": ""}},
	{"data": {"title": "Chennai flood rescue boats deployed", "url": "https://reddit.com/r/chennai/2", "score": 40, "num_comments": 12, "created_utc": 1752573700.0, "subreddit": "chennai", "author": "b", "selftext": "Flood water in Velachery, emergency teams out"}}
]}}`

const newsRSS = `<?xml version="1.0" encoding="ISO-8859-1"?>
<rss version="2.0"><channel>
<item><title>Markets close higher</title><link>https://news.example/1</link><pubDate>Tue, 15 Jul 2025 09:00:00 GMT</pubDate><description>Stocks</description></item>
<item><title>Chennai flood: evacuation under way</title><link>https://news.example/2</link><pubDate>Tue, 15 Jul 2025 10:00:00 GMT</pubDate><description>Flooding hits Tamil Nadu caf` + "\xe9" + `s</description><source url="https://thehindu.com">The Hindu</source></item>
</channel></rss>`

type fakeSources struct {
	*httptest.Server
	mu                   sync.Mutex
	redditSeen, newsSeen map[string]string
}

func (f *fakeSources) redditQuery() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redditSeen
}

func (f *fakeSources) newsQuery() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newsSeen
}

func newFakeSources(t *testing.T, robots string) *fakeSources {
	t.Helper()
	f := &fakeSources{}
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, robots)
	})
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.redditSeen = flatten(r)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, redditJSON)
	})
	mux.HandleFunc("/rss/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.newsSeen = flatten(r)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, newsRSS)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func flatten(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		out[k] = v[0]
	}
	return out
}

func testVerifier(t *testing.T, srv *fakeSources, metrics *observability.Metrics, mutate func(*model.VerificationConfig)) *Verifier {
	t.Helper()
	cfg := model.VerificationConfig{
		Enabled:         true,
		RedditEnabled:   true,
		NewsEnabled:     true,
		RedditSearchURL: srv.URL + "/search.json",
		NewsSearchURL:   srv.URL + "/rss/search",
		MaxResults:      10,
		UserAgent:       "coastwatch/0.1",
		RespectRobots:   true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewVerifier(cfg,
		WithHTTPClient(srv.Client()),
		WithLimiter(worker.NewLimiter(1000, 10)),
		WithClock(clockwork.NewFakeClockAt(verifiedAt)),
		WithMetrics(metrics),
		WithLogger(observability.NopLogger()),
	)
}

func chennaiHotspot() (model.Hotspot, []model.SocialPost) {
	var posts []model.SocialPost
	for i := range 20 {
		u := model.UrgencyMedium
		if i < 3 {
			u = model.UrgencyHigh
		}
		p := model.SocialPost{
			ID:               fmt.Sprintf("p%d", i),
			Text:             "Flooding near Velachery #ChennaiRains need rescue",
			InferredLocation: &model.InferredLocation{City: "Chennai", State: "Tamil Nadu"},
			Analysis:         &model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardFlood, Urgency: u, Confidence: 0.9},
		}
		p.IsHazard = true
		p.MeetsConfidenceThreshold = true
		posts = append(posts, p)
	}
	h := model.Hotspot{
		ID:         "hotspot_Chennai_Tamil Nadu_Flood_1752580800",
		Location:   "Chennai, Tamil Nadu",
		HazardType: model.HazardFlood,
		PostCount:  20,
		Status:     model.HotspotStatusPending,
	}
	return h, posts
}

func TestVerify_CorroboratesHotspot(t *testing.T) {
	srv := newFakeSources(t, "")
	metrics := observability.NewMetricsForTesting()
	v := testVerifier(t, srv, metrics, nil)
	h, posts := chennaiHotspot()

	got := v.Verify(context.Background(), h, posts)

	assert.Equal(t, verifiedAt, got.VerifiedAt)
	assert.Equal(t, "Chennai, Tamil Nadu", got.Location)
	assert.Equal(t, []string{
		"Chennai", "Tamil Nadu", "flood", "flooding", "waterlogged", "inundation", "chennairains", "rescue",
	}, got.SearchTerms)

	assert.Equal(t, "Chennai OR Tamil Nadu OR flood OR flooding OR waterlogged", srv.redditQuery()["q"])
	assert.Equal(t, "10", srv.redditQuery()["limit"])
	assert.Equal(t, "new", srv.redditQuery()["sort"])
	assert.Equal(t, "link", srv.redditQuery()["type"])
	assert.Equal(t, "day", srv.redditQuery()["t"])

	assert.Equal(t, "Chennai Tamil Nadu flood", srv.newsQuery()["q"])
	assert.Equal(t, "en-IN", srv.newsQuery()["hl"])
	assert.Equal(t, "IN", srv.newsQuery()["gl"])
	assert.Equal(t, "IN:en", srv.newsQuery()["ceid"])

	// Relevance outranks score.
	require.Len(t, got.RedditResults, 2)
	assert.Equal(t, "chennai", got.RedditResults[0].Subreddit)
	assert.Equal(t, 40, got.RedditResults[0].Score)
	assert.Greater(t, got.RedditResults[0].Relevance, got.RedditResults[1].Relevance)

	require.Len(t, got.NewsResults, 2)
	assert.Equal(t, "https://news.example/2", got.NewsResults[0].URL)
	assert.Equal(t, "The Hindu", got.NewsResults[0].Source)
	assert.Equal(t, "https://thehindu.com", got.NewsResults[0].SourceURL)
	assert.Equal(t, model.AuthorityEstablished, got.NewsResults[0].Authority)
	assert.Equal(t, model.AuthorityOther, got.NewsResults[1].Authority)
	assert.Contains(t, got.NewsResults[0].Description, "cafés")
	assert.Equal(t, "Google News", got.NewsResults[1].Source)

	assert.Equal(t, 2, got.Summary.TotalRedditPosts)
	assert.Equal(t, 2, got.Summary.TotalNewsArticles)
	assert.Equal(t, 540, got.Summary.RedditEngagement.TotalScore)
	assert.Contains(t, got.Summary.SourcesFound, "r/chennai")
	assert.Contains(t, got.Summary.SourcesFound, "The Hindu")
	assert.Contains(t, got.Summary.KeywordsFound, "evacuation")
	assert.Equal(t, SeriousnessLevel(SeriousnessPoints(posts, got.Summary)), got.Seriousness)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.VerificationRequests.WithLabelValues("reddit", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.VerificationRequests.WithLabelValues("news", "success")))
}

func TestVerify_RobotsDisallowSkipsSource(t *testing.T) {
	srv := newFakeSources(t, "User-agent: *\nDisallow: /search.json\n")
	metrics := observability.NewMetricsForTesting()
	v := testVerifier(t, srv, metrics, nil)
	h, posts := chennaiHotspot()

	got := v.Verify(context.Background(), h, posts)

	assert.Nil(t, srv.redditQuery())
	assert.Empty(t, got.RedditResults)
	assert.NotNil(t, got.RedditResults)
	assert.Len(t, got.NewsResults, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.VerificationRequests.WithLabelValues("reddit", "disallowed")))
}

func TestVerify_FailingSourceLeavesItEmpty(t *testing.T) {
	noSleep(t)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	srv := newFakeSources(t, "")
	metrics := observability.NewMetricsForTesting()
	v := testVerifier(t, srv, metrics, func(cfg *model.VerificationConfig) {
		cfg.NewsSearchURL = broken.URL + "/rss/search"
	})
	h, posts := chennaiHotspot()

	got := v.Verify(context.Background(), h, posts)
	assert.Len(t, got.RedditResults, 2)
	assert.Empty(t, got.NewsResults)
	assert.Equal(t, 0, got.Summary.TotalNewsArticles)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.VerificationRequests.WithLabelValues("news", "error")))
}

func TestVerify_DisabledSources(t *testing.T) {
	srv := newFakeSources(t, "")
	v := testVerifier(t, srv, nil, func(cfg *model.VerificationConfig) {
		cfg.RedditEnabled = false
		cfg.NewsEnabled = false
	})
	h, posts := chennaiHotspot()

	got := v.Verify(context.Background(), h, posts)
	assert.Nil(t, srv.redditQuery())
	assert.Nil(t, srv.newsQuery())
	// 3 High posts -> 15, 20 confident posts -> 15, 20 posts -> 10
	assert.Equal(t, model.SeriousnessMedium, got.Seriousness)
}

func TestVerifyHotspots_AttachesWithoutMutating(t *testing.T) {
	srv := newFakeSources(t, "")
	v := testVerifier(t, srv, nil, nil)
	h, posts := chennaiHotspot()
	input := []model.Hotspot{h}

	out := v.VerifyHotspots(context.Background(), input, posts)

	require.Len(t, out, 1)
	require.NotNil(t, out[0].Verification)
	assert.Nil(t, input[0].Verification)
	assert.Equal(t, h.ID, out[0].ID)
	assert.Equal(t, h.PostCount, out[0].PostCount)
	assert.Equal(t, h.Status, out[0].Status)
	assert.Equal(t, "Chennai OR Tamil Nadu OR flood OR flooding OR waterlogged", srv.redditQuery()["q"])
}

func TestVerifyHotspots_Disabled(t *testing.T) {
	srv := newFakeSources(t, "")
	v := testVerifier(t, srv, nil, func(cfg *model.VerificationConfig) { cfg.Enabled = false })
	h, posts := chennaiHotspot()

	out := v.VerifyHotspots(context.Background(), []model.Hotspot{h}, posts)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Verification)
	assert.Nil(t, srv.redditQuery())
}
