package escalation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/email"
	"github.com/suPer8Hu/intake-chat/internal/prompt"
	"github.com/suPer8Hu/intake-chat/internal/session"
	"github.com/suPer8Hu/intake-chat/internal/store/memstore"
)

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type recorded struct {
	typ       string
	sessionID string
}

type fakeRecorder struct{ events []recorded }

func (f *fakeRecorder) Record(_ context.Context, typ, sessionID string, _ map[string]any) {
	f.events = append(f.events, recorded{typ, sessionID})
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*Service, *memstore.Store, *fakeSender, *fakeRecorder, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	kv := memstore.NewWithClock(c.now)
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	return New(kv, sender, "contact@thelimbostudio.com", rec, c.now), kv, sender, rec, c
}

func TestResponse_Variants(t *testing.T) {
	base := time.UnixMilli(3_000_000)
	seen := map[string]bool{}
	for i := int64(0); i < 3; i++ {
		r := Response(base.Add(time.Duration(i) * time.Millisecond))
		assert.Contains(t, r, "best handled by a human at Limbo Studio")
		assert.Contains(t, r, "contact@thelimbostudio.com")
		seen[strings.SplitN(r, "\n", 2)[0]] = true
	}
	assert.Len(t, seen, 3)
	assert.True(t, strings.HasPrefix(Response(base), "🚨 This one's above my pay grade!"))
}

func TestMaybeEscalate_Idempotent(t *testing.T) {
	svc, kv, sender, rec, c := newService(t)
	ctx := context.Background()

	in := Input{
		SessionID: "sess-abc123456",
		Count:     1,
		Message:   "We need a five-year AI roadmap for 40 hospitals",
		Reply:     Response(c.t),
	}
	assert.True(t, svc.MaybeEscalate(ctx, in))
	in.Count = 2
	assert.False(t, svc.MaybeEscalate(ctx, in))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"contact@thelimbostudio.com"}, msg.To)
	assert.Equal(t, "🚨 High-Value Lead: Escalated Chat [123456]", msg.Subject)
	assert.Contains(t, msg.HTML, "five-year AI roadmap for 40 hospitals")
	assert.Contains(t, msg.HTML, "<strong>Total Turns:</strong> 1")
	assert.Empty(t, msg.ReplyTo)

	_, found, err := kv.Get(ctx, "escalation:sent:sess-abc123456")
	require.NoError(t, err)
	assert.True(t, found)
	ttl, _ := kv.TTL("escalation:sent:sess-abc123456")
	assert.Equal(t, EscalationMarkerTTL, ttl)

	require.Len(t, rec.events, 1)
	assert.Equal(t, "auto_escalation_sent", rec.events[0].typ)

	// marker expiry re-arms the channel
	c.t = c.t.Add(EscalationMarkerTTL)
	assert.True(t, svc.MaybeEscalate(ctx, in))
	assert.Len(t, sender.sent, 2)
}

func TestMaybeEscalate_TranscriptIncludesPriorTurns(t *testing.T) {
	svc, _, sender, _, _ := newService(t)

	in := Input{
		SessionID: "s1",
		Count:     3,
		Prior: []session.Turn{
			{User: "hi <script>"},
			{Assistant: "hello\nthere"},
		},
		Message: "full enterprise plan please",
		Reply:   "escalated",
	}
	require.True(t, svc.MaybeEscalate(context.Background(), in))

	html := sender.sent[0].HTML
	assert.Contains(t, html, "hi &lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "hello<br/>there")
	assert.Equal(t, 2, strings.Count(html, "<strong>Visitor:</strong>"))
	assert.Equal(t, 2, strings.Count(html, "<strong>AI Assistant:</strong>"))
	assert.Less(t, strings.Index(html, "hi &lt;script&gt;"), strings.Index(html, "full enterprise plan please"))
}

func TestMaybeEscalate_DeliveryFailureSwallowed(t *testing.T) {
	svc, kv, sender, rec, _ := newService(t)
	sender.err = errors.New("smtp down")
	ctx := context.Background()

	assert.False(t, svc.MaybeEscalate(ctx, Input{SessionID: "s2", Message: "m", Reply: "r"}))

	_, found, _ := kv.Get(ctx, "escalation:sent:s2")
	assert.False(t, found)
	assert.Empty(t, rec.events)
}

func validRequest() TranscriptRequest {
	return TranscriptRequest{
		SessionID:    "visitor-session-xyz789",
		VisitorEmail: "ana@example.com",
		Consent:      true,
		Transcript: []Entry{
			{Role: "user", Content: "We drown in invoices"},
			{Role: "assistant", Content: "Let's automate that"},
		},
		Plan: &prompt.Plan{
			ProblemStatement: "Invoice backlog",
			DIYOption:        &prompt.DIYOption{Tools: []string{"Docparser", "Zapier"}, EffortHours: "20-40"},
			StudioOption:     &prompt.StudioOption{TimelineWeeksTotal: "3", PriceBandUSD: "4-8k"},
		},
		AdditionalRequest: "Call me Tuesday",
	}
}

func TestSendTranscript_Success(t *testing.T) {
	svc, kv, sender, rec, _ := newService(t)
	ctx := context.Background()

	ticket, err := svc.SendTranscript(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "LC-2025-06-01-xyz789", ticket)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "New AI Chat Lead", msg.Subject)
	assert.Equal(t, "ana@example.com", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "<strong>From:</strong> ana@example.com")
	assert.Contains(t, msg.HTML, "Docparser, Zapier")
	assert.Contains(t, msg.HTML, "20-40 hours")
	assert.Contains(t, msg.HTML, "3 weeks")
	assert.Contains(t, msg.HTML, "4-8k")
	assert.Contains(t, msg.HTML, "Call me Tuesday")

	ttl, found := kv.TTL("email:sent:visitor-session-xyz789")
	require.True(t, found)
	assert.Equal(t, TranscriptMarkerTTL, ttl)

	require.Len(t, rec.events, 1)
	assert.Equal(t, "transcript_sent", rec.events[0].typ)
}

func TestSendTranscript_SecondCallAlreadySent(t *testing.T) {
	svc, _, sender, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SendTranscript(ctx, validRequest())
	require.NoError(t, err)

	other := validRequest()
	other.VisitorEmail = ""
	other.Plan = nil
	other.Transcript = []Entry{{Role: "user", Content: "different"}}
	_, err = svc.SendTranscript(ctx, other)
	assert.ErrorIs(t, err, common.ErrAlreadySent)
	assert.Len(t, sender.sent, 1)
}

func TestSendTranscript_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TranscriptRequest)
	}{
		{"no consent", func(r *TranscriptRequest) { r.Consent = false }},
		{"empty transcript", func(r *TranscriptRequest) { r.Transcript = nil }},
		{"missing session", func(r *TranscriptRequest) { r.SessionID = " " }},
		{"bad email", func(r *TranscriptRequest) { r.VisitorEmail = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, kv, sender, _, _ := newService(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.SendTranscript(context.Background(), req)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			assert.Empty(t, sender.sent)
			_, found := kv.TTL("email:sent:" + req.SessionID)
			assert.False(t, found)
		})
	}
}

func TestSendTranscript_DeliveryFailedAllowsRetry(t *testing.T) {
	svc, kv, sender, _, _ := newService(t)
	ctx := context.Background()
	sender.err = errors.New("resend 500")

	_, err := svc.SendTranscript(ctx, validRequest())
	assert.ErrorIs(t, err, common.ErrDeliveryFailed)
	_, found := kv.TTL("email:sent:visitor-session-xyz789")
	assert.False(t, found)

	sender.err = nil
	ticket, err := svc.SendTranscript(ctx, validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)
}

func TestSendTranscript_NoPlanSection(t *testing.T) {
	svc, _, sender, _, _ := newService(t)
	req := validRequest()
	req.Plan = nil
	req.VisitorEmail = ""

	_, err := svc.SendTranscript(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, sender.sent[0].HTML, "Generated Plan")
	assert.NotContains(t, sender.sent[0].HTML, "<strong>From:</strong>")
}

func TestTicket(t *testing.T) {
	at := time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "LC-2025-01-02-abc", Ticket("abc", at))
	assert.Equal(t, "LC-2025-01-02-456789", Ticket("0123456789", at))

	ticket := Ticket("session-ñandú-🚀✓", at)
	assert.True(t, utf8.ValidString(ticket))
	assert.Equal(t, "LC-2025-01-02-ndú-🚀✓", ticket)
}
