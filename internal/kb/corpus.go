package kb

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Corpus is the assembled knowledge base produced by the site build.
type Corpus struct {
	GeneratedAt   string     `json:"generated_at"`
	Version       string     `json:"version"`
	DocumentCount int        `json:"document_count"`
	Documents     []Document `json:"documents"`
}

type Document struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	Keywords      []string `json:"keywords"`
	Category      string   `json:"category"`
	TimeBandWeeks Band     `json:"time_band_weeks"`
	PriceBandUSD  Band     `json:"price_band_usd"`
	Body          string   `json:"body_md"`
}

// Band is an optional front-matter value that authors write either as a
// number or as a range string ("2-4"). Empty means unset.
type Band string

func (b *Band) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = Band(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*b = Band(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}
