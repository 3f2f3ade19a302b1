package signal_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/priceforge/priceforge/internal/signal"
)

func TestWebhook_DeliversEvents(t *testing.T) {
	received := make(chan signal.Event, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event signal.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	wh := signal.NewWebhook(ts.URL, zap.NewNop())
	wh.Notify(signal.Event{
		Type:         signal.EventConversion,
		ExperimentID: "exp-1",
		VariantID:    "v-a",
		Revenue:      29.99,
		OccurredAt:   time.Now().UTC(),
	})

	select {
	case event := <-received:
		assert.Equal(t, signal.EventConversion, event.Type)
		assert.Equal(t, "exp-1", event.ExperimentID)
		assert.InDelta(t, 29.99, event.Revenue, 0.001)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
	wh.Close()
}

func TestWebhook_SurvivesDownEndpoint(t *testing.T) {
	// Pointing at a closed port must not block or panic the caller.
	wh := signal.NewWebhook("http://127.0.0.1:1/signals", zap.NewNop())
	for i := 0; i < 10; i++ {
		wh.Notify(signal.Event{Type: signal.EventView, ExperimentID: "exp-1", VariantID: "v-a"})
	}
	wh.Close()
}

func TestWebhook_NotifyDuringClose(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	wh := signal.NewWebhook(ts.URL, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				wh.Notify(signal.Event{Type: signal.EventView, ExperimentID: "exp-1", VariantID: "v-a"})
			}
		}()
	}
	wh.Close()
	wg.Wait()

	// Close is idempotent and events after shutdown are dropped silently.
	wh.Close()
	wh.Notify(signal.Event{Type: signal.EventView, ExperimentID: "exp-1", VariantID: "v-a"})
}

func TestNop(t *testing.T) {
	var n signal.Nop
	n.Notify(signal.Event{Type: signal.EventView})
}
