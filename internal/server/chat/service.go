// Package chat implements the conversation orchestrator: it replays recent
// turns of a session to the model, commits the user/assistant pair on
// success and leaves the session untouched on failure.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/logging"
	"github.com/dmitrijs2005/medchat/internal/server/llm"
	"github.com/dmitrijs2005/medchat/internal/server/sessions"
)

// contextWindow is how many trailing messages are replayed to the model.
const contextWindow = 5

// SessionStore is the persistence the orchestrator needs.
type SessionStore interface {
	Append(ctx context.Context, username, sessionID string, msgs ...sessions.Message) error
	List(username, sessionID string) []sessions.Message
	ListSessions(username string) []sessions.Summary
	DeleteSession(ctx context.Context, username, sessionID string) error
	ClearAll(ctx context.Context, username string) error
}

// Recorder receives orchestration events for metrics.
type Recorder interface {
	ProviderCall(provider, outcome string, elapsed time.Duration)
	Rollback()
}

type nopRecorder struct{}

func (nopRecorder) ProviderCall(string, string, time.Duration) {}
func (nopRecorder) Rollback()                                  {}

// SendResult is the outcome of a successful Send.
type SendResult struct {
	Reply   string
	History []sessions.Message
}

type Service struct {
	store    SessionStore
	provider llm.Provider
	timeout  time.Duration
	locks    *keyLock
	log      logging.Logger
	rec      Recorder
	now      func() time.Time
}

// NewService wires the orchestrator. A nil provider means the model
// capability failed to initialize; Send then reports common.ErrServiceUnavailable.
func NewService(store SessionStore, provider llm.Provider, timeout time.Duration, log logging.Logger, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		store:    store,
		provider: provider,
		timeout:  timeout,
		locks:    newKeyLock(),
		log:      log.With("module", "chat"),
		rec:      rec,
		now:      time.Now,
	}
}

// Available reports whether a model provider is configured.
func (s *Service) Available() bool {
	return s.provider != nil
}

// Send runs one conversational turn for username in sessionID.
func (s *Service) Send(ctx context.Context, username, sessionID, text string) (*SendResult, error) {
	if s.provider == nil {
		return nil, common.ErrServiceUnavailable
	}

	unlock := s.locks.Lock(sessionKey(username, sessionID))
	defer unlock()

	log := s.log.With("user", username, "session_id", sessionID)

	// the user message is provisional until the reply arrives
	userMsg := sessions.NewMessage(sessions.RoleUser, text, s.now())
	working := append(s.store.List(username, sessionID), userMsg)

	reply, err := s.generate(ctx, working, text)
	if err != nil {
		s.rec.Rollback()
		log.Warn(ctx, "model call failed, turn discarded", "error", err)
		return nil, &ProcessingError{Err: err}
	}

	assistantMsg := sessions.NewMessage(sessions.RoleAssistant, reply, s.now())
	if err := s.store.Append(ctx, username, sessionID, userMsg, assistantMsg); err != nil {
		log.Error(ctx, "failed to persist turn", "error", err)
		return nil, fmt.Errorf("persist turn: %w", err)
	}

	log.Info(ctx, "turn committed", "messages", len(working)+1)

	return &SendResult{
		Reply:   reply,
		History: append(working, assistantMsg),
	}, nil
}

func (s *Service) generate(ctx context.Context, working []sessions.Message, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.provider.Generate(ctx, ContextTurns(working), BuildPrompt(text))
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.rec.ProviderCall(s.provider.Name(), outcome, time.Since(start))
	return reply, err
}

// ContextTurns picks the messages replayed to the model: the last five
// entries once the session holds more than one message, nothing otherwise.
func ContextTurns(messages []sessions.Message) []llm.Turn {
	if len(messages) <= 1 {
		return nil
	}
	from := len(messages) - contextWindow
	if from < 0 {
		from = 0
	}
	turns := make([]llm.Turn, 0, len(messages)-from)
	for _, m := range messages[from:] {
		turns = append(turns, llm.Turn{Role: llm.Role(m.Role), Content: m.Content})
	}
	return turns
}

// History returns the committed messages of a session, empty when unknown.
func (s *Service) History(username, sessionID string) []sessions.Message {
	return s.store.List(username, sessionID)
}

// Sessions summarizes the user's sessions.
func (s *Service) Sessions(username string) []sessions.Summary {
	return s.store.ListSessions(username)
}

// DeleteSession removes a session once any in-flight turn on it is done.
func (s *Service) DeleteSession(ctx context.Context, username, sessionID string) error {
	unlock := s.locks.Lock(sessionKey(username, sessionID))
	defer unlock()

	if err := s.store.DeleteSession(ctx, username, sessionID); err != nil {
		return err
	}
	s.log.Info(ctx, "session cleared", "user", username, "session_id", sessionID)
	return nil
}

// ClearAll removes every session of the user.
func (s *Service) ClearAll(ctx context.Context, username string) error {
	if err := s.store.ClearAll(ctx, username); err != nil {
		return err
	}
	s.log.Info(ctx, "all sessions cleared", "user", username)
	return nil
}
