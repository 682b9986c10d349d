// Package webhook posts signed job notifications to caller-supplied URLs.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/shopsnap/models"
)

// Event types.
const (
	EventCompleted = "scrape.completed"
	EventFailed    = "scrape.failed"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Shopsnap-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string                `json:"type"`
	JobID     string                `json:"job_id"`
	Timestamp int64                 `json:"timestamp"`
	Result    *models.ProductResult `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// NewEvent builds the event for a job that reached a terminal state.
func NewEvent(job *models.Job) *Event {
	ev := &Event{JobID: job.ID, Timestamp: time.Now().Unix()}
	if job.Status == models.JobCompleted {
		ev.Type = EventCompleted
		ev.Result = job.Result
		return ev
	}
	ev.Type = EventFailed
	if job.Error != nil {
		ev.Error = *job.Error
	}
	return ev
}

// Sender delivers events. The zero value is not usable; use New.
type Sender struct {
	client *http.Client
	secret string
	delays []time.Duration
	logger *slog.Logger

	wg sync.WaitGroup
}

// New creates a Sender. delays are the waits before each retry; the
// first attempt is immediate.
func New(secret string, delays []time.Duration, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		client: &http.Client{Timeout: 10 * time.Second},
		secret: secret,
		delays: delays,
		logger: logger,
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
func (s *Sender) Deliver(ctx context.Context, url string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Shopsnap-Webhook/1.0")
	if s.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(s.secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends the event in the background, retrying after each
// configured delay until one attempt succeeds.
func (s *Sender) DeliverAsync(url string, event *Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		delays := append([]time.Duration{0}, s.delays...)
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := s.Deliver(ctx, url, event)
			cancel()
			if err == nil {
				s.logger.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"job_id", event.JobID,
					"attempt", attempt+1,
				)
				return
			}
			s.logger.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		s.logger.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
		)
	}()
}

// Wait blocks until all in-flight async deliveries finish.
func (s *Sender) Wait() {
	s.wg.Wait()
}
