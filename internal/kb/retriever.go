// Package kb grounds replies in the studio's knowledge base using plain
// keyword overlap.
package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	topN         = 2
	bodyPreview  = 400
	docSeparator = "\n\n---\n\n"
)

type Retriever struct {
	url    string
	client *http.Client
	cache  *expirable.LRU[string, *Corpus]
}

// NewRetriever fetches the corpus from url. A positive cacheTTL keeps the
// last good corpus in memory for that long.
func NewRetriever(url string, cacheTTL time.Duration) *Retriever {
	r := &Retriever{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	if cacheTTL > 0 {
		r.cache = expirable.NewLRU[string, *Corpus](1, nil, cacheTTL)
	}
	return r
}

// Retrieve returns grounding context for the message, or "" when nothing
// matches or the corpus is unavailable. It never fails the caller.
func (r *Retriever) Retrieve(ctx context.Context, message, starter string) string {
	corpus, err := r.corpus(ctx)
	if err != nil {
		slog.Warn("kb unavailable", "url", r.url, "err", err)
		return ""
	}
	return Rank(corpus.Documents, ExtractKeywords(message, starter))
}

// Rank formats the top documents by score. Ties keep corpus order and
// zero-score documents are dropped.
func Rank(docs []Document, keywords []string) string {
	type scored struct {
		doc   Document
		score int
	}
	all := make([]scored, 0, len(docs))
	for _, d := range docs {
		all = append(all, scored{doc: d, score: Score(d, keywords)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > topN {
		all = all[:topN]
	}

	parts := make([]string, 0, topN)
	for _, s := range all {
		if s.score == 0 {
			continue
		}
		parts = append(parts, "["+s.doc.Title+"]\n"+preview(s.doc.Body, bodyPreview))
	}
	return strings.Join(parts, docSeparator)
}

func preview(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func (r *Retriever) corpus(ctx context.Context) (*Corpus, error) {
	if r.cache != nil {
		if c, ok := r.cache.Get(r.url); ok {
			return c, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kb: status %d", resp.StatusCode)
	}

	var c Corpus
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return nil, fmt.Errorf("kb: decode: %w", err)
	}
	if r.cache != nil {
		r.cache.Add(r.url, &c)
	}
	return &c, nil
}
