// Package http exposes the chat service over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/logging"
	"github.com/dmitrijs2005/medchat/internal/server/chat"
	"github.com/dmitrijs2005/medchat/internal/server/sessions"
	"github.com/dmitrijs2005/medchat/internal/timex"
)

const (
	serviceName    = "Medical Assistant Chatbot API"
	serviceVersion = "1.0.0"
	maxBodyBytes   = 1 << 20
)

// Accounts covers registration, login and the gate's existence check.
type Accounts interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Exists(username string) bool
}

// TokenVerifier resolves a bearer token to a username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Conversations is the chat orchestrator as seen by the handlers.
type Conversations interface {
	Available() bool
	Send(ctx context.Context, username, sessionID, text string) (*chat.SendResult, error)
	History(username, sessionID string) []sessions.Message
	Sessions(username string) []sessions.Summary
	DeleteSession(ctx context.Context, username, sessionID string) error
	ClearAll(ctx context.Context, username string) error
}

// Observer receives request and account metrics.
type Observer interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
	UserRegistered()
}

type nopObserver struct{}

func (nopObserver) ObserveHTTP(string, string, int, time.Duration) {}
func (nopObserver) UserRegistered()                                {}

type Handler struct {
	accounts Accounts
	tokens   TokenVerifier
	chat     Conversations
	obs      Observer
	log      logging.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(accounts Accounts, tokens TokenVerifier, conv Conversations, obs Observer, log logging.Logger) *Handler {
	if obs == nil {
		obs = nopObserver{}
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Handler{
		accounts: accounts,
		tokens:   tokens,
		chat:     conv,
		obs:      obs,
		log:      log.With("module", "http"),
		validate: v,
		now:      time.Now,
	}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type sendRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id"`
}

type sendResponse struct {
	Response string             `json:"response"`
	History  []sessions.Message `json:"history"`
}

type sessionsResponse struct {
	TotalSessions int                `json:"total_sessions"`
	Sessions      []sessions.Summary `json:"sessions"`
}

type healthResponse struct {
	Status    string `json:"status"`
	AIService string `json:"ai_service"`
	Timestamp string `json:"timestamp"`
}

type descriptorResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// decode reads a JSON body into dst and runs the struct validation tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s is required", common.ErrorValidation, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, descriptorResponse{
		Message: serviceName,
		Version: serviceVersion,
		Endpoints: map[string]string{
			"GET /health":                   "Service and AI provider status",
			"POST /auth/register":           "Create an account and get an access token",
			"POST /auth/login":              "Get an access token",
			"POST /send":                    "Send a message and get response",
			"GET /history/{session_id}":     "Get chat history for a session",
			"GET /sessions":                 "List your chat sessions",
			"DELETE /sessions/{session_id}": "Clear one session",
			"DELETE /sessions":              "Clear all your sessions",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ai := "unavailable"
	if h.chat.Available() {
		ai = "available"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		AIService: ai,
		Timestamp: timex.UTCTimestamp(h.now()),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.obs.UserRegistered()

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.TokenType})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.TokenType})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	username, _ := UsernameFromContext(r.Context())

	var req sendRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.chat.Send(r.Context(), username, req.SessionID, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Response: res.Reply, History: res.History})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	username, _ := UsernameFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.chat.History(username, sessionIDParam(r)))
}

func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	username, _ := UsernameFromContext(r.Context())
	list := h.chat.Sessions(username)
	writeJSON(w, http.StatusOK, sessionsResponse{TotalSessions: len(list), Sessions: list})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	username, _ := UsernameFromContext(r.Context())
	id := sessionIDParam(r)

	if err := h.chat.DeleteSession(r.Context(), username, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Session %s cleared successfully", id)})
}

func (h *Handler) ClearSessions(w http.ResponseWriter, r *http.Request) {
	username, _ := UsernameFromContext(r.Context())

	if err := h.chat.ClearAll(r.Context(), username); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "All sessions cleared successfully"})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
