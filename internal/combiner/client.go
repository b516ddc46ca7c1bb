// Package combiner notifies the combined-video rendering worker.
package combiner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client triggers the rendering worker over HTTP. One-way, best-effort: the
// caller decides what to do with a failure, the worker does not report back
// through this call.
type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

type triggerRequest struct {
	SessionID string `json:"sessionId"`
}

// NewClient creates a worker client for the given base URL
// (e.g. http://localhost:5001).
func NewClient(workerURL string, log *zap.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(workerURL, "/") + "/create-combined-video",
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// TriggerCombine asks the worker to render the combined artifact for a session.
func (c *Client) TriggerCombine(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(triggerRequest{SessionID: sessionID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("worker request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("worker responded %s", resp.Status)
	}
	c.log.Info("combination triggered", zap.String("session_id", sessionID))
	return nil
}
