// Package server provides the coachd HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/notebook"
	"github.com/fyrsmithlabs/coachd/internal/registry"
	"github.com/fyrsmithlabs/coachd/internal/report"
	"github.com/fyrsmithlabs/coachd/internal/retry"
)

// Server exposes session, report, and webhook endpoints over echo.
type Server struct {
	echo      *echo.Echo
	logger    *logging.Logger
	manager   *notebook.Manager
	generator *report.Generator
	sessions  *registry.SessionStore
	gatherer  prometheus.Gatherer
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// ResolveMaxRetries bounds webhook session correlation attempts.
	ResolveMaxRetries int

	// KeepAlive configures the per-session keep-alive scheduler. A zero
	// MaxLength disables it.
	KeepAlive retry.KeepAliveConfig
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(manager *notebook.Manager, generator *report.Generator, sessions *registry.SessionStore, gatherer prometheus.Gatherer, logger *logging.Logger, cfg *Config) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("notebook manager cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("report generator cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session registry cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8700, ResolveMaxRetries: 3}
	}
	if cfg.ResolveMaxRetries <= 0 {
		cfg.ResolveMaxRetries = 3
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		logger:    logger.Named("http"),
		manager:   manager,
		generator: generator,
		sessions:  sessions,
		gatherer:  gatherer,
		config:    cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/v1")
	v1.POST("/sessions", s.handleCreateSession)
	v1.POST("/sessions/:id/messages", s.handleAddMessage)
	v1.POST("/sessions/:id/reports", s.handleGenerateReports)
	v1.POST("/sessions/:id/complete", s.handleCompleteSession)
	v1.POST("/sessions/:id/abandon", s.handleAbandonSession)
	v1.POST("/webhook/conversation", s.handleConversationWebhook)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	TherapistID string `json:"therapistId"`
	ClientName  string `json:"clientName"`
}

// SessionResponse summarizes a notebook for API consumers.
type SessionResponse struct {
	ID           string          `json:"id"`
	Status       notebook.Status `json:"status"`
	CurrentTopic string          `json:"currentTopic"`
	MessageCount int             `json:"messageCount"`
	HasReports   bool            `json:"hasReports"`
}

func sessionResponse(nb *notebook.Notebook) SessionResponse {
	return SessionResponse{
		ID:           nb.ID,
		Status:       nb.Status,
		CurrentTopic: nb.CurrentTopic,
		MessageCount: len(nb.Messages),
		HasReports:   nb.HasReports(),
	}
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TherapistID == "" || req.ClientName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "therapistId and clientName are required")
	}

	ctx := c.Request().Context()
	nb, err := s.manager.CreateOrRestore(ctx, req.TherapistID, req.ClientName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := s.sessions.Register(ctx, &registry.Entry{
		SessionID:   nb.ID,
		TherapistID: req.TherapistID,
	}); err != nil {
		s.logger.Warn("session registration failed",
			zap.String("notebook_id", nb.ID), zap.Error(err))
	}

	if s.config.KeepAlive.MaxLength > 0 {
		s.startKeepAlive(nb)
	}

	return c.JSON(http.StatusOK, sessionResponse(nb))
}

// startKeepAlive attaches a keep-alive scheduler to the session: marks
// refresh the registry activity timestamp, the timeout abandons the
// session.
func (s *Server) startKeepAlive(nb *notebook.Notebook) {
	id := nb.ID
	ka := retry.NewKeepAlive(s.config.KeepAlive, retry.KeepAliveHooks{
		OnKeepAlive: func(elapsed time.Duration) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.sessions.Touch(ctx, id); err != nil {
				s.logger.Debug("keep-alive touch failed",
					zap.String("notebook_id", id), zap.Error(err))
			}
		},
		OnWarning: func(elapsed time.Duration) {
			s.logger.Warn("session nearing maximum length",
				zap.String("notebook_id", id),
				zap.Duration("elapsed", elapsed))
		},
		OnTimeout: func(elapsed time.Duration) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			timedOut, err := s.manager.Load(ctx, id)
			if err != nil || timedOut == nil {
				return
			}
			if err := s.manager.AbandonSession(ctx, timedOut); err != nil && !errors.Is(err, notebook.ErrTerminal) {
				s.logger.Error("session timeout abandon failed",
					zap.String("notebook_id", id), zap.Error(err))
			}
		},
	}, s.logger)
	ka.Start(context.Background(), nb.CreatedAt)
	s.manager.TrackKeepAlive(id, ka)
}

// AddMessageRequest is the body of POST /v1/sessions/:id/messages.
type AddMessageRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func (s *Server) handleAddMessage(c echo.Context) error {
	var req AddMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	speaker := extract.Speaker(req.Speaker)
	if speaker != extract.SpeakerUser && speaker != extract.SpeakerAgent {
		return echo.NewHTTPError(http.StatusBadRequest, "speaker must be user or agent")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	ctx := c.Request().Context()
	nb, err := s.loadSession(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	msg, err := nb.AddMessage(speaker, req.Text)
	if err != nil {
		return terminalError(err)
	}
	s.manager.ScheduleAutoSave(nb)

	if err := s.sessions.Touch(ctx, nb.ID); err != nil {
		s.logger.Debug("session touch failed",
			zap.String("notebook_id", nb.ID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, msg)
}

// ReportsResponse is the body of POST /v1/sessions/:id/reports.
type ReportsResponse struct {
	Qualitative  notebook.QualitativeReport  `json:"qualitative"`
	Quantitative notebook.QuantitativeReport `json:"quantitative"`
	Warnings     []string                    `json:"warnings,omitempty"`
}

func (s *Server) handleGenerateReports(c echo.Context) error {
	ctx := c.Request().Context()
	nb, err := s.loadSession(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	reports, err := s.generator.Generate(ctx, nb)
	if err != nil {
		if errors.Is(err, report.ErrInsufficientData) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return terminalError(err)
	}
	if err := s.manager.Save(ctx, nb); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, ReportsResponse{
		Qualitative:  reports.Qualitative,
		Quantitative: reports.Quantitative,
		Warnings:     reports.Warnings,
	})
}

func (s *Server) handleCompleteSession(c echo.Context) error {
	return s.endSession(c, s.manager.CompleteSession)
}

func (s *Server) handleAbandonSession(c echo.Context) error {
	return s.endSession(c, s.manager.AbandonSession)
}

func (s *Server) endSession(c echo.Context, end func(context.Context, *notebook.Notebook) error) error {
	ctx := c.Request().Context()
	nb, err := s.loadSession(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if err := end(ctx, nb); err != nil {
		return terminalError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse(nb))
}

// ConversationWebhookRequest is the body of POST /v1/webhook/conversation.
type ConversationWebhookRequest struct {
	ConversationID string `json:"conversationId"`
}

// ConversationWebhookResponse is the success body of the webhook.
type ConversationWebhookResponse struct {
	SessionID      string `json:"sessionId"`
	ConversationID string `json:"conversationId"`
}

// handleConversationWebhook correlates an external conversation id to the
// most recently registered session. An unresolved correlation is an
// explicit 404, never a silent default.
func (s *Server) handleConversationWebhook(c echo.Context) error {
	var req ConversationWebhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversationId is required")
	}

	ctx := c.Request().Context()
	entry, err := s.sessions.ResolveWithRetry(ctx, s.config.ResolveMaxRetries)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entry == nil {
		return echo.NewHTTPError(http.StatusNotFound, "could not determine session for conversation")
	}

	entry.ConversationID = req.ConversationID
	if err := s.sessions.Register(ctx, entry); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, ConversationWebhookResponse{
		SessionID:      entry.SessionID,
		ConversationID: req.ConversationID,
	})
}

// loadSession fetches the notebook or translates its absence into a 404.
func (s *Server) loadSession(ctx context.Context, id string) (*notebook.Notebook, error) {
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}
	nb, err := s.manager.Load(ctx, id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if nb == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return nb, nil
}

// terminalError maps ErrTerminal to a 409 and anything else to a 500.
func terminalError(err error) error {
	if errors.Is(err, notebook.ErrTerminal) {
		return echo.NewHTTPError(http.StatusConflict, "session is no longer active")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
