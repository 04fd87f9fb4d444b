package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/server/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSnapshots struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
	saves   int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: map[string][]byte{}}
}

func (m *memSnapshots) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (m *memSnapshots) Save(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[name] = append([]byte(nil), data...)
	return nil
}

func (m *memSnapshots) Close() error { return nil }

func (m *memSnapshots) fail(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

var t0 = time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)

func msg(role Role, content string, offset time.Duration) Message {
	return NewMessage(role, content, t0.Add(offset))
}

func TestStore_AppendAndList(t *testing.T) {
	t.Parallel()

	snap := newMemSnapshots()
	s := NewStore(snap)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", "s1", msg(RoleUser, "hi", 0)))
	require.NoError(t, s.Append(ctx, "alice", "s1",
		msg(RoleAssistant, "hello", time.Second),
		msg(RoleUser, "bye", 2*time.Second),
	))

	got := s.List("alice", "s1")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"hi", "hello", "bye"}, []string{got[0].Content, got[1].Content, got[2].Content})
	assert.Equal(t, "2025-02-03T10:00:00.000000Z", got[0].Timestamp)
	assert.Equal(t, 2, snap.saves, "every append persists")

	got[0].Content = "mutated"
	assert.Equal(t, "hi", s.List("alice", "s1")[0].Content, "List returns a copy")
}

func TestStore_ListUnknown(t *testing.T) {
	t.Parallel()

	s := NewStore(newMemSnapshots())
	got := s.List("alice", "nope")
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, s.ListSessions("alice"))
}

func TestStore_Isolation(t *testing.T) {
	t.Parallel()

	s := NewStore(newMemSnapshots())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", "s1", msg(RoleUser, "alice secret", 0)))
	require.NoError(t, s.Append(ctx, "bob", "s2", msg(RoleUser, "bob note", 0)))

	assert.Empty(t, s.List("bob", "s1"))
	assert.Empty(t, s.List("alice", "s2"))

	bobs := s.ListSessions("bob")
	require.Len(t, bobs, 1)
	assert.Equal(t, "s2", bobs[0].SessionID)
}

func TestStore_ListSessions(t *testing.T) {
	t.Parallel()

	s := NewStore(newMemSnapshots())
	ctx := context.Background()
	long := strings.Repeat("a", 150)

	require.NoError(t, s.Append(ctx, "alice", "b-second", msg(RoleUser, "x", 0)))
	require.NoError(t, s.Append(ctx, "alice", "a-first", msg(RoleUser, "q", 0), msg(RoleAssistant, long, time.Minute)))

	got := s.ListSessions("alice")
	require.Len(t, got, 2)

	assert.Equal(t, "b-second", got[0].SessionID, "creation order is kept")
	assert.Equal(t, 1, got[0].MessageCount)
	require.NotNil(t, got[0].LastMessageContent)
	assert.Equal(t, "x", *got[0].LastMessageContent)

	assert.Equal(t, "a-first", got[1].SessionID)
	assert.Equal(t, 2, got[1].MessageCount)
	require.NotNil(t, got[1].LastMessage)
	assert.Equal(t, "2025-02-03T10:01:00.000000Z", *got[1].LastMessage)
	assert.Equal(t, strings.Repeat("a", 100)+"...", *got[1].LastMessageContent)
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Preview("short"))
	assert.Equal(t, strings.Repeat("b", 100), Preview(strings.Repeat("b", 100)))
	assert.Equal(t, strings.Repeat("b", 100)+"...", Preview(strings.Repeat("b", 101)))
	assert.Equal(t, strings.Repeat("é", 100)+"...", Preview(strings.Repeat("é", 120)), "cut on characters, not bytes")
}

func TestStore_DeleteSession(t *testing.T) {
	t.Parallel()

	s := NewStore(newMemSnapshots())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", "s1", msg(RoleUser, "one", 0)))
	require.NoError(t, s.Append(ctx, "alice", "s2", msg(RoleUser, "two", 0)))

	require.NoError(t, s.DeleteSession(ctx, "alice", "s1"))
	assert.Empty(t, s.List("alice", "s1"))
	require.Len(t, s.ListSessions("alice"), 1)

	require.ErrorIs(t, s.DeleteSession(ctx, "alice", "s1"), common.ErrSessionNotFound)
	require.ErrorIs(t, s.DeleteSession(ctx, "bob", "s2"), common.ErrSessionNotFound, "other users cannot delete it")
	assert.Len(t, s.List("alice", "s2"), 1)
}

func TestStore_ClearAll(t *testing.T) {
	t.Parallel()

	snap := newMemSnapshots()
	s := NewStore(snap)
	ctx := context.Background()

	require.NoError(t, s.ClearAll(ctx, "alice"), "clearing nothing succeeds")
	assert.Zero(t, snap.saves)

	require.NoError(t, s.Append(ctx, "alice", "s1", msg(RoleUser, "one", 0)))
	require.NoError(t, s.Append(ctx, "alice", "s2", msg(RoleUser, "two", 0)))
	require.NoError(t, s.Append(ctx, "bob", "s1", msg(RoleUser, "bob", 0)))

	require.NoError(t, s.ClearAll(ctx, "alice"))
	require.NoError(t, s.ClearAll(ctx, "alice"))

	assert.Empty(t, s.ListSessions("alice"))
	assert.Len(t, s.List("bob", "s1"), 1)
}

func TestStore_PersistFailureRestoresState(t *testing.T) {
	t.Parallel()

	snap := newMemSnapshots()
	s := NewStore(snap)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "alice", "s1", msg(RoleUser, "kept", 0)))
	snap.fail(errors.New("disk full"))

	require.Error(t, s.Append(ctx, "alice", "s1", msg(RoleUser, "q", 0), msg(RoleAssistant, "a", 0)))
	assert.Len(t, s.List("alice", "s1"), 1, "failed append leaves no partial turn")

	require.Error(t, s.Append(ctx, "alice", "fresh", msg(RoleUser, "q", 0)))
	assert.Len(t, s.ListSessions("alice"), 1, "failed append does not vivify a session")

	require.Error(t, s.DeleteSession(ctx, "alice", "s1"))
	assert.Len(t, s.List("alice", "s1"), 1)

	require.Error(t, s.ClearAll(ctx, "alice"))
	assert.Len(t, s.ListSessions("alice"), 1)
}

func TestStore_LoadRoundTrip(t *testing.T) {
	t.Parallel()

	snap := newMemSnapshots()
	ctx := context.Background()

	first := NewStore(snap)
	require.NoError(t, first.Append(ctx, "alice", "z", msg(RoleUser, "one", 0)))
	require.NoError(t, first.Append(ctx, "alice", "a", msg(RoleUser, "two", 0), msg(RoleAssistant, "three", time.Second)))
	require.NoError(t, first.Append(ctx, "bob", "s", msg(RoleUser, "four", 0)))

	var raw map[string][]record
	require.NoError(t, json.Unmarshal(snap.data[snapshot.NameChatHistory], &raw))
	require.Len(t, raw["alice"], 2)

	second := NewStore(snap)
	require.NoError(t, second.Load(ctx))

	assert.Equal(t, first.ListSessions("alice"), second.ListSessions("alice"))
	assert.Equal(t, first.List("alice", "a"), second.List("alice", "a"))
	assert.Equal(t, first.List("bob", "s"), second.List("bob", "s"))
}

func TestStore_LoadMissingAndCorrupt(t *testing.T) {
	t.Parallel()

	snap := newMemSnapshots()
	s := NewStore(snap)
	require.NoError(t, s.Load(context.Background()))

	snap.data[snapshot.NameChatHistory] = []byte("[[[")
	require.Error(t, s.Load(context.Background()))
}

func TestStore_ConcurrentAppendsDifferentSessions(t *testing.T) {
	t.Parallel()

	s := NewStore(newMemSnapshots())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := string(rune('a' + i))
			for j := 0; j < 10; j++ {
				_ = s.Append(ctx, "alice", sid, msg(RoleUser, "m", 0))
			}
		}(i)
	}
	wg.Wait()

	sums := s.ListSessions("alice")
	require.Len(t, sums, 8)
	for _, sum := range sums {
		assert.Equal(t, 10, sum.MessageCount)
	}
}
