// Package workflow is the outbound side of the external workflow-engine
// integration: a single fire-and-forget trigger per created job. The engine
// does the actual scraping, scoring and drafting, and reports back through
// the callback endpoint.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/closersai/leadgen/pkg/models"
	"github.com/google/uuid"
)

// Sentinel errors for trigger failures.
var (
	ErrUnreachable    = errors.New("workflow engine unreachable")
	ErrTriggerFailed  = errors.New("workflow trigger rejected")
	ErrTriggerTimeout = errors.New("workflow trigger timeout")
)

// Notifier triggers the external workflow for a job.
type Notifier interface {
	Trigger(ctx context.Context, jobID uuid.UUID, input models.JobInput) error
}

// TriggerPayload is the wire shape of the outbound trigger. The workflow
// engine echoes callback_secret in the x-callback-secret header when it
// calls callback_url.
type TriggerPayload struct {
	JobID          uuid.UUID       `json:"job_id"`
	Input          models.JobInput `json:"input"`
	CallbackURL    string          `json:"callback_url"`
	CallbackSecret string          `json:"callback_secret"`
}

// Client implements Notifier against the engine's HTTP trigger endpoint.
type Client struct {
	triggerURL     string
	callbackURL    string
	callbackSecret string
	client         *http.Client
}

// NewClient creates a workflow trigger client.
func NewClient(triggerURL, callbackURL, callbackSecret string, timeout time.Duration) *Client {
	return &Client{
		triggerURL:     triggerURL,
		callbackURL:    callbackURL,
		callbackSecret: callbackSecret,
		client:         &http.Client{Timeout: timeout},
	}
}

// Trigger issues exactly one notification for the job. No retries: delivery
// beyond this single attempt is the workflow engine's problem, and the caller
// treats any error as log-only.
func (c *Client) Trigger(ctx context.Context, jobID uuid.UUID, input models.JobInput) error {
	payload := TriggerPayload{
		JobID:          jobID,
		Input:          input,
		CallbackURL:    c.callbackURL,
		CallbackSecret: c.callbackSecret,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.triggerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrTriggerFailed, resp.StatusCode)
	}
	return nil
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTriggerTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTriggerTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
