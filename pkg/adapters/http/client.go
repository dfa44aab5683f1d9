package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hificopy/formflow/internal/logging"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
)

// DefaultClientTimeout bounds a single request when no http.Client is supplied.
// The auto-save pipeline applies its own per-attempt deadline on top.
const DefaultClientTimeout = 30 * time.Second

const maxErrorBody = 4096

// Client is the answer sink over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.AnswerSink = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithClientLogger configures a logger for the Client.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultClientTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SaveProgress posts the delta to /forms/{formId}/progress.
// Non-2xx replies are returned as *domain.StatusError.
func (c *Client) SaveProgress(ctx context.Context, update domain.ProgressUpdate) (domain.SaveResult, error) {
	if update.FormID == "" {
		return domain.SaveResult{}, errors.New("progress update has no form id")
	}
	body, err := json.Marshal(update)
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("failed to encode progress: %w", err)
	}

	endpoint := c.baseURL + "/forms/" + url.PathEscape(update.FormID) + "/progress"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.SaveResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("save progress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("save progress rejected", "status", resp.StatusCode, "form_id", update.FormID)
		return domain.SaveResult{}, &domain.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	var result domain.SaveResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.SaveResult{}, fmt.Errorf("failed to decode save result: %w", err)
	}
	return result, nil
}
