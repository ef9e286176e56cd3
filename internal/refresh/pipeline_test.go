package refresh_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsbox/internal/feed"
	"github.com/pders01/newsbox/internal/inbox"
	"github.com/pders01/newsbox/internal/refresh"
	"github.com/pders01/newsbox/internal/storage"
)

const worldFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>World</title>
<item><title>Summit opens</title><link>https://world.test/summit</link><description>&lt;p&gt;Leaders &lt;b&gt;arrive&lt;/b&gt;&lt;/p&gt;</description><pubDate>Tue, 05 Mar 2024 08:00:00 GMT</pubDate></item>
</channel></rss>`

const sportFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Sport</title>
<item><title>Cup final</title><link>https://sport.test/final</link><pubDate>Tue, 05 Mar 2024 09:00:00 GMT</pubDate></item>
<item><title>Transfer news</title><link>https://sport.test/transfer</link><pubDate>Mon, 04 Mar 2024 09:00:00 GMT</pubDate></item>
</channel></rss>`

// etagServer serves body with a fixed ETag and answers conditional
// requests with 304.
func etagServer(t *testing.T, body string, notModified *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func cycle(t *testing.T, orch *refresh.Orchestrator, st *inbox.State) {
	t.Helper()
	cmd := orch.Start(st)
	require.NotNil(t, cmd)
	_, ok := cmd().(refresh.ReadyMsg)
	require.True(t, ok)
	require.True(t, orch.Drain(st))
}

func TestPipeline_AggregatorStoreOrchestrator(t *testing.T) {
	var notModified atomic.Int32
	world := etagServer(t, worldFeed, &notModified)
	sport := etagServer(t, sportFeed, &notModified)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cache.db"), time.Second)
	require.NoError(t, err)
	defer store.Close()

	sources := []feed.Source{
		{Name: "World", URL: world.URL},
		{Name: "Sport", URL: sport.URL},
	}
	agg := feed.NewAggregator(feed.NewFetcher(5*time.Second, "newsbox-test/1.0"), store, 2)
	orch := refresh.New(agg, sources, refresh.WithRecorder(store))
	st := inbox.New()

	cycle(t, orch, st)

	titles := func() []string {
		var out []string
		for _, it := range st.Items() {
			out = append(out, it.Title)
		}
		return out
	}
	assert.Equal(t, []string{"Cup final", "Summit opens", "Transfer news"}, titles())
	assert.Equal(t, "Loaded 3 articles", st.Status())
	assert.Equal(t, "Leaders arrive", st.Items()[1].Summary)
	assert.Equal(t, "World::https://world.test/summit", st.Items()[1].ID)

	last, err := store.LastRefresh()
	require.NoError(t, err)
	assert.False(t, last.IsZero())

	// The second cycle is served from the cache through 304s.
	cycle(t, orch, st)
	assert.Equal(t, int32(2), notModified.Load())
	assert.Equal(t, []string{"Cup final", "Summit opens", "Transfer news"}, titles())

	st.AppendFilter("sport")
	st.CommitFilter()
	assert.Equal(t, 2, st.VisibleCount())
}

func TestPipeline_PartialFailure(t *testing.T) {
	var notModified atomic.Int32
	world := etagServer(t, worldFeed, &notModified)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer broken.Close()

	sources := []feed.Source{
		{Name: "World", URL: world.URL},
		{Name: "Broken", URL: broken.URL},
	}
	orch := refresh.New(feed.NewAggregator(feed.NewFetcher(5*time.Second, ""), nil, 2), sources)
	st := inbox.New()

	cycle(t, orch, st)
	assert.Equal(t, 1, st.VisibleCount())
	assert.Equal(t, "Loaded 1 articles • 1 feeds failed", st.Status())
}
