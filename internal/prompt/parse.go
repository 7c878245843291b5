package prompt

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// Steps reported to the widget.
const (
	StepAsk        = "ask"
	StepRecommend  = "recommend"
	StepFinal      = "final"
	StepEscalation = "escalation"
)

type Reply struct {
	Markdown string
	Plan     *Plan
	Step     string
	IsFinal  bool
}

var (
	fencedJSON  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedStrip = regexp.MustCompile("(?s)```json.*?```")
)

type trailer struct {
	Step *string         `json:"step"`
	Plan json.RawMessage `json:"plan"`
}

// ParseCompletion splits model output into the visible reply and the
// optional trailing ```json block. Escalation templates are returned as-is.
func ParseCompletion(text string, isEscalation bool) Reply {
	if isEscalation {
		return Reply{Markdown: text, Step: StepEscalation}
	}

	out := Reply{Markdown: text, Step: StepAsk}

	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		return out
	}

	var t trailer
	if err := json.Unmarshal([]byte(m[1]), &t); err != nil {
		slog.Warn("plan block decode failed", "err", err)
		return out
	}

	out.Step = StepRecommend
	if t.Step != nil && *t.Step != "" {
		out.Step = *t.Step
	}
	out.Plan = decodePlan(t.Plan)
	out.Markdown = strings.TrimSpace(replaceFirst(fencedStrip, text, ""))
	out.IsFinal = out.Step == StepFinal || (out.Step == StepRecommend && out.Plan != nil)
	return out
}

// decodePlan keeps any plan the model sent. Only JSON's falsy values
// (null, false, 0, "") count as no plan.
func decodePlan(raw json.RawMessage) *Plan {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return nil
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		slog.Warn("plan decode failed", "err", err)
		return nil
	}
	return &p
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
