// Package sessions keeps every user's chat sessions in memory and rewrites
// the chat_history snapshot after each mutation.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/server/snapshot"
)

type session struct {
	id       string
	messages []Message
}

// userSessions preserves session creation order for listings.
type userSessions struct {
	order []*session
	byID  map[string]*session
}

func newUserSessions() *userSessions {
	return &userSessions{byID: make(map[string]*session)}
}

func (u *userSessions) add(s *session) {
	u.order = append(u.order, s)
	u.byID[s.id] = s
}

func (u *userSessions) remove(id string) (int, *session) {
	s, ok := u.byID[id]
	if !ok {
		return -1, nil
	}
	delete(u.byID, id)
	for i, cur := range u.order {
		if cur == s {
			u.order = append(u.order[:i], u.order[i+1:]...)
			return i, s
		}
	}
	return -1, s
}

func (u *userSessions) insertAt(i int, s *session) {
	if i < 0 || i > len(u.order) {
		i = len(u.order)
	}
	u.order = append(u.order, nil)
	copy(u.order[i+1:], u.order[i:])
	u.order[i] = s
	u.byID[s.id] = s
}

// Store is the session store. It is safe for concurrent use; callers that
// need read-modify-write consistency on one session serialize on their own.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userSessions
	snap  snapshot.Store
}

func NewStore(snap snapshot.Store) *Store {
	return &Store{users: make(map[string]*userSessions), snap: snap}
}

// record is the persisted form of one session.
type record struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// Load replaces the in-memory state with the persisted snapshot.
// A missing snapshot leaves the store empty and is not an error.
func (s *Store) Load(ctx context.Context) error {
	b, err := s.snap.Load(ctx, snapshot.NameChatHistory)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	var loaded map[string][]record
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decode chat history snapshot: %w", err)
	}

	users := make(map[string]*userSessions, len(loaded))
	for username, records := range loaded {
		us := newUserSessions()
		for _, r := range records {
			if _, dup := us.byID[r.SessionID]; dup {
				continue
			}
			us.add(&session{id: r.SessionID, messages: r.Messages})
		}
		users[username] = us
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

// Append adds msgs to the end of the session, creating it if needed, and
// persists the whole store. Multiple messages are committed together: on a
// persistence error none of them remain.
func (s *Store) Append(ctx context.Context, username, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	us, userCreated := s.users[username], false
	if us == nil {
		us, userCreated = newUserSessions(), true
		s.users[username] = us
	}
	sess, sessCreated := us.byID[sessionID], false
	if sess == nil {
		sess, sessCreated = &session{id: sessionID}, true
		us.add(sess)
	}

	prevLen := len(sess.messages)
	sess.messages = append(sess.messages, msgs...)

	if err := s.persistLocked(ctx); err != nil {
		sess.messages = sess.messages[:prevLen]
		if sessCreated {
			us.remove(sessionID)
		}
		if userCreated {
			delete(s.users, username)
		}
		return err
	}
	return nil
}

// List returns a copy of the session's messages in insertion order, or an
// empty slice when the session does not exist.
func (s *Store) List(username, sessionID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	us := s.users[username]
	if us == nil {
		return []Message{}
	}
	sess := us.byID[sessionID]
	if sess == nil {
		return []Message{}
	}
	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// ListSessions summarizes the user's sessions in creation order.
func (s *Store) ListSessions(username string) []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	us := s.users[username]
	if us == nil {
		return []Summary{}
	}

	out := make([]Summary, 0, len(us.order))
	for _, sess := range us.order {
		sum := Summary{SessionID: sess.id, MessageCount: len(sess.messages)}
		if n := len(sess.messages); n > 0 {
			last := sess.messages[n-1]
			ts, preview := last.Timestamp, Preview(last.Content)
			sum.LastMessage = &ts
			sum.LastMessageContent = &preview
		}
		out = append(out, sum)
	}
	return out
}

// DeleteSession removes one session or fails with common.ErrSessionNotFound.
func (s *Store) DeleteSession(ctx context.Context, username, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	us := s.users[username]
	if us == nil {
		return common.ErrSessionNotFound
	}
	pos, sess := us.remove(sessionID)
	if sess == nil {
		return common.ErrSessionNotFound
	}

	if err := s.persistLocked(ctx); err != nil {
		us.insertAt(pos, sess)
		return err
	}
	return nil
}

// ClearAll removes every session of the user. Clearing a user without
// sessions succeeds without touching storage.
func (s *Store) ClearAll(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	us := s.users[username]
	if us == nil {
		return nil
	}
	delete(s.users, username)

	if err := s.persistLocked(ctx); err != nil {
		s.users[username] = us
		return err
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	out := make(map[string][]record, len(s.users))
	for username, us := range s.users {
		if len(us.order) == 0 {
			continue
		}
		records := make([]record, 0, len(us.order))
		for _, sess := range us.order {
			records = append(records, record{SessionID: sess.id, Messages: sess.messages})
		}
		out[username] = records
	}

	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode chat history snapshot: %w", err)
	}
	if err := s.snap.Save(ctx, snapshot.NameChatHistory, b); err != nil {
		return fmt.Errorf("save chat history snapshot: %w", err)
	}
	return nil
}
