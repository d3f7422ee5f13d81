package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/orrn/batchfarm/internal/config"
	"github.com/orrn/batchfarm/internal/core"
)

type WebhookPayload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Signature string    `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID         string     `json:"job_id,omitempty"`
	JobName       string     `json:"job_name,omitempty"`
	Machine       int        `json:"machine"`
	MachineName   string     `json:"machine_name,omitempty"`
	Batch         int        `json:"batch"`
	EstCompletion *time.Time `json:"est_completion,omitempty"`
	Error         string     `json:"error,omitempty"`
}

type webhookTask struct {
	target  config.WebhookTarget
	payload *WebhookPayload
	attempt int
}

// clientError is a 4xx response; retrying will not help.
type clientError struct {
	status int
}

func (e *clientError) Error() string {
	return fmt.Sprintf("http error: %d", e.status)
}

type WebhookSender struct {
	targets    []config.WebhookTarget
	httpClient *http.Client
	retryCount int
	retryDelay time.Duration
	workers    int
	log        hclog.Logger
	queue      chan *webhookTask
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewWebhookSender(cfg config.WebhooksConfig, logger hclog.Logger) *WebhookSender {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &WebhookSender{
		targets: cfg.Targets,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
		workers:    cfg.WorkerCount,
		log:        logger,
		queue:      make(chan *webhookTask, cfg.QueueSize),
		stopCh:     make(chan struct{}),
	}
}

func (s *WebhookSender) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *WebhookSender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// Publish queues the event for every target subscribed to it. It never
// blocks; events are dropped when the queue is full.
func (s *WebhookSender) Publish(e core.Event) {
	data := &JobEventData{
		JobID:       e.JobID,
		JobName:     e.JobName,
		Machine:     e.Machine,
		MachineName: e.MachineName,
		Batch:       e.Batch,
		Error:       e.Error,
	}
	if !e.EstCompletion.IsZero() {
		eta := e.EstCompletion
		data.EstCompletion = &eta
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	for _, target := range s.targets {
		if len(target.Events) > 0 && !slices.Contains(target.Events, string(e.Type)) {
			continue
		}

		task := &webhookTask{
			target: target,
			payload: &WebhookPayload{
				Event:     string(e.Type),
				Timestamp: ts,
				Data:      data,
			},
		}

		select {
		case s.queue <- task:
		default:
			s.log.Warn("queue full, dropping webhook", "target", target.URL, "event", e.Type)
		}
	}
}

func (s *WebhookSender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case task := <-s.queue:
			if err := s.sendWithRetry(task); err != nil {
				s.log.Error("webhook delivery failed", "worker", id, "target", task.target.URL,
					"event", task.payload.Event, "attempts", task.attempt, "error", err)
			}
		}
	}
}

func (s *WebhookSender) sendWithRetry(task *webhookTask) error {
	var lastErr error
	for task.attempt < s.retryCount {
		task.attempt++

		err := s.sendRequest(task.target, task.payload)
		if err == nil {
			return nil
		}

		lastErr = err

		var ce *clientError
		if errors.As(err, &ce) {
			s.log.Warn("client error, not retrying", "target", task.target.URL, "error", err)
			return err
		}

		if task.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(task.attempt-1))
			s.log.Debug("retrying webhook", "attempt", task.attempt, "max", s.retryCount,
				"target", task.target.URL, "backoff", backoff, "error", err)

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *WebhookSender) sendRequest(target config.WebhookTarget, payload *WebhookPayload) error {
	payloadBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if target.Secret != "" {
		payload.Signature = SignPayload(payloadBytes, target.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, target.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &clientError{status: resp.StatusCode}
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

// SignPayload returns the hex HMAC-SHA256 of the event data, as sent in the
// X-Webhook-Signature header.
func SignPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
