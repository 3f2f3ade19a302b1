// Package signal delivers view/conversion events to an external webhook
// collaborator. Delivery is fire-and-forget: the engine never blocks on it
// and never depends on it succeeding.
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType distinguishes the two signal kinds.
type EventType string

const (
	EventView       EventType = "view"
	EventConversion EventType = "conversion"
)

// Event is the payload posted to the signal collaborator.
type Event struct {
	Type         EventType `json:"type"`
	TenantID     string    `json:"tenantId,omitempty"`
	ExperimentID string    `json:"experimentId"`
	VariantID    string    `json:"variantId"`
	Revenue      float64   `json:"revenue,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Notifier is what the engine emits events through.
type Notifier interface {
	Notify(event Event)
}

// Nop discards all events. Used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(Event) {}

// Webhook posts events as JSON to a fixed URL from a single background
// worker. The queue is bounded; when it is full events are dropped rather
// than back-pressuring the hot record path.
type Webhook struct {
	url      string
	client   *http.Client
	queue    chan Event
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

const queueSize = 1024

// NewWebhook starts the delivery worker for the given URL.
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	w := &Webhook{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		queue:  make(chan Event, queueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go w.run()
	return w
}

// Notify enqueues an event for delivery. It never blocks, and it is safe
// to call concurrently with Close; events arriving after shutdown are
// discarded. The queue channel itself is never closed so a racing send
// cannot panic.
func (w *Webhook) Notify(event Event) {
	select {
	case <-w.stop:
		return
	default:
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("signal queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("experiment", event.ExperimentID))
	}
}

// Close stops the worker and waits for it to exit. Queued and subsequent
// events are discarded. Close is idempotent.
func (w *Webhook) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Webhook) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case event := <-w.queue:
			w.deliver(event)
		}
	}
}

func (w *Webhook) deliver(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		w.logger.Error("failed to marshal signal event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("failed to build signal request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("signal delivery failed",
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn("signal endpoint returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("type", string(event.Type)))
	}
}
