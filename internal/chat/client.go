package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jayphen/todoapp/internal/logging"
)

// DefaultTimeout bounds a single chat round trip.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 4 << 10

// Assistant produces a reply for one message. Each call is independent;
// no conversation context is sent.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

// HTTPAssistant posts messages to the remote chat endpoint.
type HTTPAssistant struct {
	endpoint string
	client   *http.Client
}

// NewHTTPAssistant creates an assistant for the endpoint URL. timeout
// defaults to DefaultTimeout when not positive.
func NewHTTPAssistant(endpoint string, timeout time.Duration) (*HTTPAssistant, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid chat endpoint %q", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPAssistant{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Endpoint returns the chat URL.
func (a *HTTPAssistant) Endpoint() string {
	return a.endpoint
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response *string `json:"response"`
}

// Reply sends {"message": ...} and returns the "response" field.
func (a *HTTPAssistant) Reply(ctx context.Context, message string) (string, error) {
	data, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := logging.WithComponent("chat").WithField("request_id", requestID)

	resp, err := a.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.WithField("status", resp.StatusCode).Debug("chat request rejected")
		return "", fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	if out.Response == nil {
		return "", fmt.Errorf("chat response has no response field")
	}

	log.Debug("chat reply received")
	return *out.Response, nil
}
