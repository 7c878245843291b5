package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suPer8Hu/intake-chat/internal/ai"
)

type stubCompleter struct {
	out   string
	err   error
	calls int
	model string
	mode  ai.Mode
	last  string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt, model string, mode ai.Mode) (string, error) {
	s.calls++
	s.model, s.mode, s.last = model, mode, prompt
	return s.out, s.err
}

func TestClassify_Tiers(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want Tier
	}{
		{"simple", `{"classification":"SIMPLE","reasoning":"faq"}`, Simple},
		{"complex", `{"classification":"COMPLEX"}`, Complex},
		{"very complex", `{"classification":"VERY_COMPLEX"}`, VeryComplex},
		{"lower case with noise", `{"classification":" very_complex. "}`, VeryComplex},
		{"unknown tier", `{"classification":"MEDIUM"}`, Simple},
		{"space instead of underscore", `{"classification":"VERY COMPLEX"}`, Simple},
		{"missing field", `{"reasoning":"?"}`, Simple},
		{"wrong type", `{"classification":3}`, Simple},
		{"not json", `COMPLEX`, Simple},
		{"empty", ``, Simple},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{out: tt.out}
			c := New(stub, "gpt-4o-mini")
			assert.Equal(t, tt.want, c.Classify(context.Background(), "msg", 0, ""))
			assert.Equal(t, 1, stub.calls)
			assert.Equal(t, "gpt-4o-mini", stub.model)
			assert.Equal(t, ai.ModeClassify, stub.mode)
		})
	}
}

func TestClassify_CallErrorFailsOpen(t *testing.T) {
	c := New(&stubCompleter{err: errors.New("timeout")}, "m")
	assert.Equal(t, Simple, c.Classify(context.Background(), "msg", 3, "[3 turns] x"))
}

func TestPrompt_Context(t *testing.T) {
	p := Prompt("Build me a 5 year roadmap", 2, "")
	assert.Contains(t, p, "Conversation turn: 3")
	assert.Contains(t, p, "Previous context: First message")
	assert.Contains(t, p, "USER REQUEST:\nBuild me a 5 year roadmap")

	p = Prompt("x", 0, "[1 turns] hi")
	assert.Contains(t, p, "Previous context: [1 turns] hi")
}

func TestModels_ForTier(t *testing.T) {
	m := Models{Classification: "c", Simple: "s", Complex: "x"}

	model, esc := m.ForTier(Simple)
	assert.Equal(t, "s", model)
	assert.False(t, esc)

	model, esc = m.ForTier(Complex)
	assert.Equal(t, "x", model)
	assert.False(t, esc)

	model, esc = m.ForTier(VeryComplex)
	assert.Empty(t, model)
	assert.True(t, esc)
}
