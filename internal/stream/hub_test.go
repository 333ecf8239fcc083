package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
)

func TestHubBroadcastsToSubscriber(t *testing.T) {
	hub := NewHub(metrics.NewRecorderWith(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// small pause so the register completes before the broadcast
	time.Sleep(50 * time.Millisecond)

	hub.Publish("price", "analytic", map[string]float64{"value": 10.45})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var update Update
	require.NoError(t, json.Unmarshal(raw, &update))
	assert.Equal(t, "price", update.Type)
	assert.Equal(t, "analytic", update.Method)
	assert.False(t, update.Timestamp.IsZero())

	payload, ok := update.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 10.45, payload["value"].(float64), 1e-9)
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub(metrics.NewRecorderWith(prometheus.NewRegistry()))

	// no Run loop draining: the buffered channel absorbs what it can and
	// Publish drops the rest instead of blocking
	for i := 0; i < 1000; i++ {
		hub.Publish("greeks", "mc", map[string]int{"i": i})
	}
}
