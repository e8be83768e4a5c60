// Package remote talks to the service that turns free text into to-do items.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Makepad-fr/freetodo/internal/logging"
	"github.com/Makepad-fr/freetodo/internal/model"
)

const (
	// CreatePath is the creation endpoint, relative to the base URL.
	CreatePath = "/create_todolist_items/"

	// DefaultBaseURL is where the service listens during local development.
	DefaultBaseURL = "http://localhost:8000"

	maxResponseSize = 1 << 20
	maxErrorBody    = 512
	tracerName      = "github.com/Makepad-fr/freetodo/internal/remote"
)

type createRequest struct {
	Input string `json:"input"`
}

// Client calls POST /create_todolist_items/.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	timeout time.Duration
	logger  *log.Logger
	tracer  trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout bounds each call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider records spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logging.Discard(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the full creation URL.
func (c *Client) Endpoint() string { return c.baseURL + CreatePath }

// Create sends input to the service and returns the items it produced, in
// response order. Errors wrap ErrRemoteCall or ErrResponseShape.
func (c *Client) Create(ctx context.Context, input string) ([]model.Item, error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "remote.create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("todo.request_id", requestID),
			attribute.String("http.url", c.Endpoint()),
		),
	)
	defer span.End()

	items, status, err := c.create(ctx, requestID, input)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("create failed", "request_id", requestID, "status", status, "err", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("todo.items", len(items)))
	c.logger.Debug("create ok", "request_id", requestID, "items", len(items))
	return items, nil
}

func (c *Client) create(ctx context.Context, requestID, input string) ([]model.Item, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := sonic.ConfigStd.Marshal(createRequest{Input: input})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: encode request: %v", ErrRemoteCall, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", ErrRemoteCall, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", ErrRemoteCall, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: trimBody(data)}
	}
	if len(data) > maxResponseSize {
		return nil, resp.StatusCode, fmt.Errorf("%w: body larger than %d bytes", ErrResponseShape, maxResponseSize)
	}

	items, err := decodeItems(data)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return items, resp.StatusCode, nil
}

func decodeItems(data []byte) ([]model.Item, error) {
	if err := model.Validate(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseShape, err)
	}
	var items []model.Item
	if err := sonic.ConfigStd.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseShape, err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func trimBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
