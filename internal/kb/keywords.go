package kb

import "strings"

var starterKeywords = map[string][]string{
	"describe":  {"discovery", "planning", "roadmap"},
	"doc-chaos": {"document", "workflow", "automation", "routing"},
	"site-bot":  {"chatbot", "website", "support", "customer"},
	"ai-site":   {"website", "web", "development", "platform"},
	"schedule":  {"scheduling", "calendar", "assistant", "automation"},
}

var vocabulary = []string{
	"chatbot", "website", "document", "schedule", "automation",
	"support", "customer", "workflow", "dashboard", "training",
	"rag", "llm", "ai", "pilot", "architecture",
}

// ExtractKeywords returns the starter's keywords followed by every
// vocabulary term found as a substring of the lower-cased message.
// Duplicates are dropped, first occurrence wins.
func ExtractKeywords(message, starter string) []string {
	text := strings.ToLower(message)
	seen := make(map[string]struct{})
	var out []string
	add := func(kw string) {
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}

	if starter != "" {
		for _, kw := range starterKeywords[starter] {
			add(kw)
		}
	}
	for _, term := range vocabulary {
		if strings.Contains(text, term) {
			add(term)
		}
	}
	return out
}

// Score counts the keywords contained in the document's searchable text.
func Score(doc Document, keywords []string) int {
	search := strings.ToLower(doc.Title + " " + strings.Join(doc.Tags, " ") + " " +
		strings.Join(doc.Keywords, " ") + " " + doc.Body)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(search, kw) {
			score++
		}
	}
	return score
}
