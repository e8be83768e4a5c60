// Package stubserver is a local stand-in for the to-do creation service. It
// serves the same route and payload shapes so the client can be developed
// and tested offline.
package stubserver

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/freetodo/internal/model"
)

const maxBodySize = 64 << 10

// Responder produces the items returned for an input.
type Responder func(input string) []model.Item

// Request is one call the server received.
type Request struct {
	Input         string
	Authorization string
	RequestID     string
}

// Server serves POST /create_todolist_items/ and GET /healthz.
type Server struct {
	echo      *echo.Echo
	logger    *log.Logger
	respond   Responder
	delay     time.Duration
	failCode  int
	mu        sync.Mutex
	requests  []Request
	rawBody   []byte
	rawStatus int
}

// Option customizes a Server.
type Option func(*Server)

// WithResponder replaces the rule-based parser.
func WithResponder(r Responder) Option {
	return func(s *Server) {
		if r != nil {
			s.respond = r
		}
	}
}

// WithFailure makes every create call answer with status.
func WithFailure(status int) Option {
	return func(s *Server) { s.failCode = status }
}

// WithRawResponse makes every create call answer with a fixed body.
func WithRawResponse(status int, body string) Option {
	return func(s *Server) {
		s.rawStatus = status
		s.rawBody = []byte(body)
	}
}

// WithDelay holds every create call for d before answering.
func WithDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Server with its routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		logger:  log.New(),
		respond: Parse,
	}
	for _, o := range opts {
		o(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(s.logRequests)

	e.POST("/create_todolist_items/", s.create)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.echo = e
	return s
}

// Handler exposes the routes for httptest or an outer mux.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

type createRequest struct {
	Input string `json:"input"`
}

func (s *Server) create(c echo.Context) error {
	// FastAPI accepted input as a query parameter; keep accepting it.
	input := c.QueryParam("input")
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if len(body) > 0 {
		var req createRequest
		if err := sonic.ConfigStd.Unmarshal(body, &req); err != nil {
			return c.String(http.StatusUnprocessableEntity, "invalid body")
		}
		input = req.Input
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Input:         input,
		Authorization: c.Request().Header.Get(echo.HeaderAuthorization),
		RequestID:     c.Request().Header.Get("X-Request-ID"),
	})
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-c.Request().Context().Done():
			return c.NoContent(499)
		}
	}
	if s.failCode != 0 {
		return c.String(s.failCode, "forced failure")
	}
	if s.rawStatus != 0 {
		return c.Blob(s.rawStatus, echo.MIMEApplicationJSON, s.rawBody)
	}
	items := s.respond(input)
	if items == nil {
		items = []model.Item{}
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		fields := log.Fields{
			"method":     c.Request().Method,
			"path":       c.Request().URL.Path,
			"status":     c.Response().Status,
			"request_id": c.Request().Header.Get("X-Request-ID"),
			"total_ms":   time.Since(start).Milliseconds(),
		}
		if c.Response().Status >= http.StatusInternalServerError {
			s.logger.WithFields(fields).Warn("request failed")
		} else {
			s.logger.WithFields(fields).Info("request")
		}
		return nil
	}
}
