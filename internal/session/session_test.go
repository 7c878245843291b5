package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/intake-chat/internal/store/memstore"
)

func TestSession_TurnsBoundedToFour(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New(now)

	for i := 0; i < 5; i++ {
		s.AddUserTurn("question "+string(rune('a'+i)), now)
		s.AddAssistantTurn("answer " + string(rune('a'+i)))
		assert.LessOrEqual(t, len(s.Turns), MaxTurns)
	}

	assert.Equal(t, 5, s.Count)
	require.Len(t, s.Turns, 4)
	assert.Equal(t, "question d", s.Turns[0].User)
	assert.Equal(t, "answer e", s.Turns[3].Assistant)
	assert.Equal(t, "[5 turns] question d answer d question e answer e", s.Summary)
}

func TestSession_TruncatesFragments(t *testing.T) {
	s := New(time.Now())
	long := strings.Repeat("é", 250)

	s.AddUserTurn(long, time.Now())
	s.AddAssistantTurn(long)

	assert.Equal(t, strings.Repeat("é", 200)+"...", s.Turns[0].User)
	assert.Equal(t, strings.Repeat("é", 200)+"...", s.Turns[1].Assistant)
}

func TestSession_SummaryCappedAt300(t *testing.T) {
	s := New(time.Now())
	s.AddUserTurn(strings.Repeat("x", 200), time.Now())
	s.AddAssistantTurn(strings.Repeat("y", 200))

	prefix := "[1 turns] "
	require.True(t, strings.HasPrefix(s.Summary, prefix))
	assert.Len(t, []rune(strings.TrimPrefix(s.Summary, prefix)), SummaryLimit)
}

func TestSession_UserTurnUpdatesLastAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New(start)
	later := start.Add(time.Minute)

	s.AddUserTurn("hi", later)

	assert.Equal(t, start.UnixMilli(), s.CreatedAt)
	assert.Equal(t, later.UnixMilli(), s.LastAt)
}

func TestManager_LoadSaveRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	kv := memstore.NewWithClock(clock)
	m := NewManager(kv, clock)
	ctx := context.Background()

	fresh := m.Load(ctx, "abc")
	assert.Equal(t, 0, fresh.Count)
	assert.Empty(t, fresh.Turns)

	fresh.AddUserTurn("hello", now)
	fresh.AddAssistantTurn("hi there")
	require.NoError(t, m.Save(ctx, "abc", fresh))

	loaded := m.Load(ctx, "abc")
	assert.Equal(t, 1, loaded.Count)
	assert.Equal(t, fresh.Turns, loaded.Turns)

	raw, found, err := kv.Get(ctx, "chat:sessions:abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, `"turns":[{"u":"hello"},{"a":"hi there"}]`)

	// silent reset after 24h of inactivity
	now = now.Add(TTL)
	reset := m.Load(ctx, "abc")
	assert.Equal(t, 0, reset.Count)
	assert.Empty(t, reset.Turns)
}

func TestManager_LoadCorruptRecord(t *testing.T) {
	kv := memstore.New()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "chat:sessions:bad", "{not json", TTL))

	s := NewManager(kv, nil).Load(ctx, "bad")
	assert.Equal(t, 0, s.Count)
}
