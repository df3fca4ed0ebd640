// Package basecamp is a read-only client for the Basecamp project API.
package basecamp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/benvon/dashcollect/internal/config"
	"github.com/benvon/dashcollect/internal/logger"
	"github.com/benvon/dashcollect/internal/models"
)

const (
	tracerName = "github.com/benvon/dashcollect/internal/basecamp"
	limiterKey = "basecamp"

	// maxErrorBody bounds how much of an error response is kept on APIError.
	maxErrorBody = 512
	// DefaultMaxResponseBytes bounds a single response body.
	DefaultMaxResponseBytes int64 = 32 << 20
)

// Options configures a Client. Exactly one of Credentials or AccessToken is used;
// an access token takes precedence.
type Options struct {
	ProjectsURL string
	Credentials *config.Credentials
	AccessToken string
	UserAgent   string
	// RateLimit is a limiter rate such as "50-S". Empty disables throttling.
	RateLimit string
	Timeout   time.Duration
	// MaxResponseBytes bounds each response body. Zero means DefaultMaxResponseBytes.
	MaxResponseBytes int64

	// Transport, TracerProvider and Propagator default to http.DefaultTransport
	// and the global otel providers.
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// Client issues authenticated GET requests against the API.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	creds      *config.Credentials
	userAgent  string
	maxBody    int64
	limiter    *limiter.Limiter
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	logger     *zap.Logger
}

// NewClient builds a client from opts.
func NewClient(opts Options, zapLogger *zap.Logger) (*Client, error) {
	endpoints, err := NewEndpoints(opts.ProjectsURL)
	if err != nil {
		return nil, err
	}
	if opts.AccessToken == "" && opts.Credentials == nil {
		return nil, errors.New("basecamp client requires credentials or an access token")
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	creds := opts.Credentials
	if opts.AccessToken != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"}),
			Base:   transport,
		}
		creds = nil
	}

	c := &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Transport: transport, Timeout: opts.Timeout},
		creds:      creds,
		userAgent:  opts.UserAgent,
		maxBody:    opts.MaxResponseBytes,
		propagator: opts.Propagator,
		logger:     zapLogger,
	}

	if c.maxBody <= 0 {
		c.maxBody = DefaultMaxResponseBytes
	}

	if opts.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit %q: %w", opts.RateLimit, err)
		}
		c.limiter = limiter.New(memory.NewStore(), rate)
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(tracerName)
	if c.propagator == nil {
		c.propagator = otel.GetTextMapPropagator()
	}

	return c, nil
}

// Projects lists every project visible to the account.
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.getJSON(ctx, "projects", c.endpoints.Projects(), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// TodoLists lists a project's to-do lists.
func (c *Client) TodoLists(ctx context.Context, projectID int64) ([]models.TodoList, error) {
	var lists []models.TodoList
	if err := c.getJSON(ctx, "todolists", c.endpoints.TodoLists(projectID), &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// TodoList fetches one list with its remaining items.
func (c *Client) TodoList(ctx context.Context, projectID, listID int64) (*models.TodoListDetail, error) {
	var detail models.TodoListDetail
	if err := c.getJSON(ctx, "todolist", c.endpoints.TodoList(projectID, listID), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Topics fetches one page of discussion threads. Pages start at 1.
func (c *Client) Topics(ctx context.Context, projectID int64, page int) ([]models.Topic, error) {
	var topics []models.Topic
	if err := c.getJSON(ctx, "topics", c.endpoints.Topics(projectID, page), &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// Comments fetches the comments of a thread in the order the API returns them.
func (c *Client) Comments(ctx context.Context, projectID int64, topic models.Topic) ([]models.Comment, error) {
	var commentable models.Commentable
	if err := c.getJSON(ctx, "comments", c.endpoints.Comments(projectID, topic), &commentable); err != nil {
		return nil, err
	}
	return commentable.Comments, nil
}

func (c *Client) getJSON(ctx context.Context, operation, rawURL string, out any) error {
	safeURL := logger.SanitizeURL(rawURL)
	ctx, span := c.tracer.Start(ctx, "basecamp."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", safeURL),
		),
	)
	defer span.End()

	err := c.do(ctx, rawURL, safeURL, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, rawURL, safeURL string, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.creds != nil {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", safeURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed_to_close_response_body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("basecamp_request",
		zap.String("url", safeURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", safeURL, err)
	}
	if int64(len(body)) > c.maxBody {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, safeURL, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        safeURL,
			Body:       logger.SanitizeString(string(body), maxErrorBody),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w from %s: %v", ErrMalformedResponse, safeURL, err)
	}
	return nil
}

// throttle blocks until the limiter admits another request or ctx is done.
func (c *Client) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for {
		lctx, err := c.limiter.Get(ctx, limiterKey)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		if !lctx.Reached {
			return nil
		}

		wait := time.Until(time.Unix(lctx.Reset, 0))
		if wait < 10*time.Millisecond {
			wait = 10 * time.Millisecond
		}
		c.logger.Debug("rate_limit_wait", zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
