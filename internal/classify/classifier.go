// Package classify buckets a visitor message into a complexity tier that
// drives model selection and escalation.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/suPer8Hu/intake-chat/internal/ai"
)

type Classifier struct {
	completer ai.Completer
	model     string
}

func New(completer ai.Completer, model string) *Classifier {
	return &Classifier{completer: completer, model: model}
}

type verdict struct {
	Classification string `json:"classification"`
	Reasoning      string `json:"reasoning"`
}

// Classify never fails: any call, decode or vocabulary error yields Simple.
func (c *Classifier) Classify(ctx context.Context, message string, turnCount int, summary string) Tier {
	out, err := c.completer.Complete(ctx, Prompt(message, turnCount, summary), c.model, ai.ModeClassify)
	if err != nil {
		slog.Error("classification call failed", "err", err)
		return Simple
	}

	var v verdict
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		slog.Error("classification decode failed", "err", err)
		return Simple
	}

	tier, ok := ParseTier(v.Classification)
	if !ok {
		slog.Warn("invalid classification", "raw", v.Classification)
		return Simple
	}
	slog.Info("classification", "tier", tier, "reasoning", v.Reasoning)
	return tier
}

// Prompt renders the rubric for one message.
func Prompt(message string, turnCount int, summary string) string {
	if summary == "" {
		summary = "First message"
	}
	return fmt.Sprintf(rubric, turnCount+1, summary, message)
}

const rubric = `Classify this customer request as SIMPLE, COMPLEX, or VERY_COMPLEX.

CLASSIFICATION RULES:

SIMPLE - Choose this for:
- Factual questions about services, pricing, or timelines
- Requests for definitions or explanations of concepts
- General questions about AI consulting or implementation
- Straightforward comparisons (DIY vs professional help)

COMPLEX - Choose this for:
- Strategic planning questions requiring multi-step reasoning
- Technical architecture decisions with multiple considerations
- Implementation approaches that need nuanced judgment
- Questions involving compliance, regulations, or risk assessment
- Comparing multiple approaches with tradeoffs
- Follow-up questions that build on complex previous topics

VERY_COMPLEX - Choose this for:
- Custom multi-year roadmaps with financial modeling
- Major business decisions (acquisitions, large investments, partnerships)
- Highly specific industry expertise beyond general consulting
- Legal or regulatory advice requiring attorney review
- Enterprise proposals requiring extensive custom scoping
- Questions explicitly requesting deliverables like "create a complete plan"

CONTEXT:
Conversation turn: %d
Previous context: %s

USER REQUEST:
%s

Respond with valid JSON only:
{
  "classification": "SIMPLE" | "COMPLEX" | "VERY_COMPLEX",
  "reasoning": "Brief explanation of why"
}`
