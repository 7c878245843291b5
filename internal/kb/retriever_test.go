package kb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus() Corpus {
	return Corpus{
		Version: "1.0",
		Documents: []Document{
			{ID: "pricing", Title: "Pricing", Tags: []string{"pricing"}, Body: "Bands for every engagement."},
			{ID: "chatbots", Title: "Chatbots", Tags: []string{"chatbot", "support"}, Keywords: []string{"customer"}, Body: "We build website chatbots. " + strings.Repeat("z", 500)},
			{ID: "docs", Title: "Document automation", Keywords: []string{"workflow"}, Body: "Document routing and automation."},
			{ID: "web", Title: "Websites", Tags: []string{"website"}, Body: "Sites with a support chatbot."},
		},
	}
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("Can an AI Chatbot help our Customer SUPPORT?", "")
	assert.Equal(t, []string{"chatbot", "support", "customer", "ai"}, kws)

	kws = ExtractKeywords("any automation?", "doc-chaos")
	assert.Equal(t, []string{"document", "workflow", "automation", "routing"}, kws)

	assert.Empty(t, ExtractKeywords("hello there", "unknown-starter"))
}

func TestScore(t *testing.T) {
	doc := testCorpus().Documents[1]
	assert.Equal(t, 3, Score(doc, []string{"chatbot", "support", "customer", "dashboard"}))
	assert.Equal(t, 0, Score(doc, nil))
}

func TestRank_TopTwoStableAndFormatted(t *testing.T) {
	docs := testCorpus().Documents
	kws := []string{"chatbot", "support", "website"}

	out := Rank(docs, kws)
	parts := strings.Split(out, docSeparator)
	require.Len(t, parts, 2)

	// chatbots and web both score 3; corpus order is kept
	assert.True(t, strings.HasPrefix(parts[0], "[Chatbots]\nWe build website chatbots."))
	assert.Len(t, []rune(strings.TrimPrefix(parts[0], "[Chatbots]\n")), bodyPreview)
	assert.Equal(t, "[Websites]\nSites with a support chatbot.", parts[1])

	for i := 0; i < 5; i++ {
		assert.Equal(t, out, Rank(docs, kws))
	}
}

func TestRank_DropsZeroScores(t *testing.T) {
	docs := testCorpus().Documents
	out := Rank(docs, []string{"routing"})
	assert.Equal(t, "[Document automation]\nDocument routing and automation.", out)

	assert.Equal(t, "", Rank(docs, []string{"nothing-matches"}))
}

func TestRetriever_FetchAndCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(testCorpus())
	}))
	defer srv.Close()

	r := NewRetriever(srv.URL, time.Minute)
	out := r.Retrieve(context.Background(), "need a dashboard and some workflow help", "")
	assert.Equal(t, "[Document automation]\nDocument routing and automation.", out)

	_ = r.Retrieve(context.Background(), "workflow", "")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRetriever_DegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad-json":
			_, _ = w.Write([]byte("<html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	assert.Equal(t, "", NewRetriever(srv.URL+"/missing", 0).Retrieve(context.Background(), "chatbot", ""))
	assert.Equal(t, "", NewRetriever(srv.URL+"/bad-json", 0).Retrieve(context.Background(), "chatbot", ""))
	assert.Equal(t, "", NewRetriever("http://127.0.0.1:1/kb.json", 0).Retrieve(context.Background(), "chatbot", ""))
}

func TestBand_Unmarshal(t *testing.T) {
	var d Document
	require.NoError(t, json.Unmarshal([]byte(`{"time_band_weeks":2,"price_band_usd":"1.5-3k"}`), &d))
	assert.Equal(t, Band("2"), d.TimeBandWeeks)
	assert.Equal(t, Band("1.5-3k"), d.PriceBandUSD)

	var empty Document
	require.NoError(t, json.Unmarshal([]byte(`{"time_band_weeks":null}`), &empty))
	assert.Equal(t, Band(""), empty.TimeBandWeeks)
}
