// Package worker is the HTTP client of the external worker that verifies login
// codes and runs forwarding tasks. Calls are never retried: each one returns a
// Result that the conversation layer reports to the user as is.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forwardbot/internal/models"
)

const (
	checkCodePath = "/check_code"
	startTaskPath = "/start_task"

	// maxBodySize caps how much of a worker response is read
	maxBodySize = 64 << 10
)

// Status classifies a worker call
type Status int

const (
	StatusSuccess Status = iota
	StatusRejected
	StatusTransportFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRejected:
		return "rejected"
	default:
		return "transport_failure"
	}
}

// Result is the outcome of a worker call
type Result struct {
	Status Status
	// Message is the worker's message, the raw body of a non-200 reply,
	// or the transport error text
	Message string
	// HTTPStatus is 0 when no response was received
	HTTPStatus int
}

// OK reports whether the worker accepted the request
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

type response struct {
	Success any    `json:"success"`
	Message string `json:"message,omitempty"`
}

// truthy accepts the loose success flags workers send: true, non-zero numbers and non-empty strings
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return false
	}
}

type checkCodeRequest struct {
	UserID int64  `json:"user_id"`
	Phone  string `json:"phone"`
	Code   string `json:"code"`
}

type startTaskRequest struct {
	UserID int64         `json:"user_id"`
	Config models.Config `json:"config"`
}

// Client talks to the worker over HTTP
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewClient creates a worker client; timeout bounds every call
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CheckCode asks the worker to verify a login code for the phone
func (c *Client) CheckCode(ctx context.Context, userID int64, phone, code string) Result {
	return c.post(ctx, checkCodePath, userID, checkCodeRequest{
		UserID: userID,
		Phone:  phone,
		Code:   code,
	})
}

// StartTask submits the final configuration of a user
func (c *Client) StartTask(ctx context.Context, userID int64, cfg models.Config) Result {
	return c.post(ctx, startTaskPath, userID, startTaskRequest{
		UserID: userID,
		Config: cfg,
	})
}

func (c *Client) post(ctx context.Context, path string, userID int64, payload any) Result {
	requestID := uuid.NewString()
	log := c.logger.With(
		zap.String("path", path),
		zap.Int64("user_id", userID),
		zap.String("request_id", requestID),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to encode worker request", zap.Error(err))
		return Result{Status: StatusTransportFailure, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		log.Error("Failed to build worker request", zap.Error(err))
		return Result{Status: StatusTransportFailure, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Warn("Worker request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Result{Status: StatusTransportFailure, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		log.Warn("Failed to read worker response", zap.Error(err), zap.Int("status", resp.StatusCode))
		return Result{Status: StatusTransportFailure, Message: err.Error(), HTTPStatus: resp.StatusCode}
	}

	log.Debug("Worker responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		return Result{Status: StatusRejected, Message: msg, HTTPStatus: resp.StatusCode}
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Warn("Invalid worker response body", zap.Error(err))
		return Result{
			Status:     StatusRejected,
			Message:    fmt.Sprintf("invalid worker response: %s", strings.TrimSpace(string(raw))),
			HTTPStatus: resp.StatusCode,
		}
	}

	if !truthy(parsed.Success) {
		return Result{Status: StatusRejected, Message: parsed.Message, HTTPStatus: resp.StatusCode}
	}
	return Result{Status: StatusSuccess, Message: parsed.Message, HTTPStatus: resp.StatusCode}
}
