// Package server initializes and runs the medchat server: it opens the
// snapshot store, restores accounts and chat history, connects the model
// provider and serves the HTTP API plus the optional gRPC health probe.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/medchat/internal/logging"
	"github.com/dmitrijs2005/medchat/internal/server/auth"
	"github.com/dmitrijs2005/medchat/internal/server/chat"
	"github.com/dmitrijs2005/medchat/internal/server/config"
	"github.com/dmitrijs2005/medchat/internal/server/llm"
	"github.com/dmitrijs2005/medchat/internal/server/metrics"
	"github.com/dmitrijs2005/medchat/internal/server/sessions"
	"github.com/dmitrijs2005/medchat/internal/server/snapshot"
	"github.com/dmitrijs2005/medchat/internal/server/users"

	gs "github.com/dmitrijs2005/medchat/internal/server/grpc"
	hs "github.com/dmitrijs2005/medchat/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	snapshots   snapshot.Store
	metrics     *metrics.Metrics
	tokens      *auth.TokenService
	userService *users.Service
	chatService *chat.Service
}

// NewApp validates the configuration and builds every component. Persisted
// state that cannot be read is logged and replaced by an empty store.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.Environment, slog.LevelInfo)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	for _, name := range c.InsecureDefaults() {
		logger.Warn(ctx, "insecure development default in use", "setting", name)
	}

	snaps, err := snapshot.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("snapshot store init error: %w", err)
	}
	logger.Info(ctx, "snapshot store ready", "backend", c.StorageBackend)

	m := metrics.New()

	userStore := users.NewStore(snaps, c.PasswordSalt)
	if err := userStore.Load(ctx); err != nil {
		logger.Error(ctx, "failed to load users, starting empty", "error", err)
	}
	m.SetRegisteredUsers(userStore.Count())

	sessionStore := sessions.NewStore(snaps)
	if err := sessionStore.Load(ctx); err != nil {
		logger.Error(ctx, "failed to load chat history, starting empty", "error", err)
	}

	tokens := auth.NewTokenService(c.SecretKey, c.TokenTTL)
	us := users.NewService(userStore, tokens)

	var provider llm.Provider
	p, err := llm.New(llm.Config{
		Provider: c.LLMProvider,
		APIKey:   c.LLMAPIKey,
		Model:    c.LLMModel,
		BaseURL:  c.LLMBaseURL,
	})
	if err != nil {
		logger.Error(ctx, "AI service unavailable", "provider", c.LLMProvider, "error", err)
	} else {
		provider = p
		logger.Info(ctx, "AI service configured", "provider", p.Name())
	}
	m.SetProviderAvailable(provider != nil)

	cs := chat.NewService(sessionStore, provider, c.LLMTimeout, logger, m)

	return &App{
		config:      c,
		logger:      logger,
		snapshots:   snaps,
		metrics:     m,
		tokens:      tokens,
		userService: us,
		chatService: cs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := hs.NewHandler(app.userService, app.tokens, app.chatService, app.metrics, app.logger)
	s := hs.NewServer(app.config.HTTPAddr, h.Routes(app.metrics.Handler()), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.chatService.Available())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// waits for the servers to drain and closes the snapshot store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCHealthServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.snapshots.Close(); err != nil {
		app.logger.Error(ctx, "failed to close snapshot store", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
