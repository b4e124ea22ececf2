package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/izzy/internal/agents"
	"github.com/jonathan/izzy/internal/assistant"
	"github.com/jonathan/izzy/internal/config"
	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/llm"
	"github.com/jonathan/izzy/internal/locks"
	"github.com/jonathan/izzy/internal/server/middleware"
	"github.com/jonathan/izzy/internal/server/ratelimit"
)

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	agents          *agents.Agents
	health          func(ctx context.Context) error
	rateLimiter     *ratelimit.Limiter
	jwtService      *JWTService
	userService     *UserService
	authHandler     *AuthHandler
	validator       *validator.Validate
	logger          *slog.Logger
	chunkDelay      time.Duration
	maxUploadBytes  int64
	shutdownTimeout time.Duration
	closers         []func()
}

// Config holds server configuration
type Config struct {
	Server    *config.ServerConfig
	Assistant *config.AssistantConfig
	Logger    *slog.Logger
}

// Options wires a Server from already constructed dependencies.
type Options struct {
	Agents           *agents.Agents
	Users            UserStore
	Health           func(ctx context.Context) error
	JWT              *config.JWTConfig
	Password         *config.PasswordConfig
	RateLimit        *ratelimit.Config
	Logger           *slog.Logger
	Port             int
	StreamChunkDelay time.Duration
	MaxUploadBytes   int64
	ShutdownTimeout  time.Duration
}

// New connects the backing services and creates a new server instance
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	database, err := db.Connect(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers := []func(){database.Close}
	fail := func(err error) (*Server, error) {
		for _, c := range closers {
			c()
		}
		return nil, err
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return fail(fmt.Errorf("failed to create password config: %w", err))
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fail(fmt.Errorf("failed to create JWT config: %w", err))
	}

	provider, err := assistant.NewOpenAIClient(assistant.OpenAIConfig{
		APIKey:  cfg.Assistant.APIKey,
		BaseURL: cfg.Assistant.BaseURL,
		Timeout: cfg.Assistant.RequestTimeout,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to create assistant client: %w", err))
	}

	// The evaluator is optional; without a Gemini key it reports a config error.
	var llmClient llm.Client
	if cfg.Server.GeminiAPIKey != "" {
		llmClient, err = llm.NewClient(ctx, llm.ConfigFromEnv(), cfg.Server.GeminiAPIKey)
		if err != nil {
			return fail(fmt.Errorf("failed to create LLM client: %w", err))
		}
		client := llmClient
		closers = append(closers, func() { _ = client.Close() })
	} else {
		logger.Warn("GEMINI_API_KEY not set, answer evaluation disabled")
	}

	locker := locks.New(ctx, cfg.Server.RedisURL, locks.OptionsFor(cfg.Assistant.PollTimeout))
	if c, ok := locker.(io.Closer); ok {
		closers = append(closers, func() { _ = c.Close() })
	}

	poller := assistant.Poller{
		Initial:    cfg.Assistant.PollInitial,
		Max:        cfg.Assistant.PollMax,
		Multiplier: 2,
		Timeout:    cfg.Assistant.PollTimeout,
	}
	ids := agents.AssistantIDs{
		ResumeParser: cfg.Assistant.ResumeParserID,
		Strategist:   cfg.Assistant.StrategistID,
		Interviewer:  cfg.Assistant.InterviewerID,
	}
	pipeline := agents.New(agents.Deps{
		Store:      database,
		Provider:   provider,
		Poller:     poller,
		LLM:        llmClient,
		Locker:     locker,
		Logger:     logger,
		Assistants: ids,
	})

	rateLimit, err := ratelimit.LoadConfig()
	if err != nil {
		return fail(fmt.Errorf("failed to load rate limit config: %w", err))
	}

	s := newServer(Options{
		Agents:           pipeline,
		Users:            database,
		Health:           database.Ping,
		JWT:              jwtConfig,
		Password:         passwordConfig,
		RateLimit:        rateLimit,
		Logger:           logger,
		Port:             cfg.Server.Port,
		StreamChunkDelay: cfg.Server.StreamChunkDelay,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	s.closers = append(s.closers, closers...)
	return s, nil
}

func newServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	jwtService := NewJWTService(opts.JWT)
	userService := NewUserService(opts.Users, opts.Password)

	s := &Server{
		agents:          opts.Agents,
		health:          opts.Health,
		rateLimiter:     ratelimit.NewLimiter(opts.RateLimit),
		jwtService:      jwtService,
		userService:     userService,
		authHandler:     NewAuthHandler(userService, jwtService),
		validator:       validator.New(),
		logger:          logger,
		chunkDelay:      opts.StreamChunkDelay,
		maxUploadBytes:  opts.MaxUploadBytes,
		shutdownTimeout: opts.ShutdownTimeout,
	}
	s.closers = append(s.closers, s.rateLimiter.Stop)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // interview turns wait on a full assistant run
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// routes builds the handler chain. Everything except auth and health needs a bearer token.
func (s *Server) routes() http.Handler {
	auth := middleware.RequireAuth(s.jwtService)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/anonymous", s.handleAnonymous)
	mux.Handle("PUT /auth/password", protected(s.handleUpdatePassword))
	mux.Handle("GET /auth/me", protected(s.handleMe))

	// Resumes
	mux.Handle("POST /resumes/parse", protected(s.handleParseResume))
	mux.Handle("POST /resumes/upload", protected(s.handleUploadResume))
	mux.Handle("POST /resumes", protected(s.handleSaveResume))
	mux.Handle("GET /resumes", protected(s.handleListResumes))
	mux.Handle("GET /resumes/active", protected(s.handleActiveResume))
	mux.Handle("DELETE /resumes/{id}", protected(s.handleDeleteResume))

	// Strategy and interview sessions
	mux.Handle("POST /strategies", protected(s.handleCreateStrategy))
	mux.Handle("GET /sessions", protected(s.handleListSessions))
	mux.Handle("GET /sessions/{id}", protected(s.handleGetSession))
	mux.Handle("POST /sessions/{id}/start", protected(s.handleStartInterview))
	mux.Handle("POST /sessions/{id}/continue", protected(s.handleContinueInterview))
	mux.Handle("POST /sessions/{id}/continue/stream", protected(s.handleContinueInterviewStream))
	mux.Handle("POST /sessions/{id}/questions/{question_id}/evaluate", protected(s.handleEvaluateAnswer))

	mux.Handle("DELETE /job-postings/{id}", protected(s.handleDeleteJobPosting))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Handler exposes the routed handler, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Close()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	s.logger.Info("server stopped")
	return nil
}

// Close releases the rate limiter, model clients, locks and database pool.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.Method, r.URL.Path)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the logging wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote", r.RemoteAddr),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", slog.Any("error", err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// writeResult renders an agent result, mapping a failure to the status of its error kind.
func writeResult[T any](s *Server, w http.ResponseWriter, status int, res agents.Result[T]) {
	if !res.Success {
		code := HTTPStatus(res.Err)
		if code >= http.StatusInternalServerError {
			s.logger.Error("agent call failed", slog.Int("status", code), slog.String("error", res.Error))
		}
		s.errorResponse(w, code, res.Error)
		return
	}
	s.jsonResponse(w, status, res)
}

// handleRegister handles user registration requests.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r)
}

// handleLogin handles user login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

func (s *Server) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Anonymous(w, r)
}

// handleUpdatePassword handles password update requests.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.authHandler.UpdatePassword(w, r, userID)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	user, err := s.userService.GetUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"success":   false,
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("client", s.extractClientID(r)),
		slog.String("path", r.URL.Path),
		slog.Int("limit", info.Limit),
		slog.Time("reset", info.ResetTime),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
