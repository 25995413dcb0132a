// Package course holds the HTTP client for the remote course service.
package course

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edustack/authuser/domain"
)

// Client calls the course service. Every call is bounded by the configured
// timeout so a slow course service cannot stall its caller.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

// Config carries the course service endpoint settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New builds a course service client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &fasthttp.Client{
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// PurgeUser asks the course service to discard its view of the user's
// enrollments. Callers decide whether a failure matters; user deletion
// treats it as best-effort.
func (c *Client) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/courses/users/%s", c.baseURL, userID))
	req.Header.SetMethod(fasthttp.MethodDelete)

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "course service unreachable", err)
	}

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return domain.WrapError(domain.ErrCodeUnavailable, "course service refused purge",
			fmt.Errorf("unexpected status %d", status))
	}

	c.logger.Debug("course purge acknowledged", zap.String("user_id", userID.String()), zap.Int("status", status))
	return nil
}
