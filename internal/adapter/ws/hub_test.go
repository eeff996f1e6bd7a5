package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func startHub(t *testing.T) (*Hub, string, context.CancelFunc) {
	t.Helper()
	hub := NewHub(observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var ack Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, TypeAck, ack.Type)
	return conn
}

func TestHub_BroadcastsAlerts(t *testing.T) {
	hub, url, _ := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	require.Equal(t, 2, hub.Subscribers())

	events := []domain.AlertEvent{{ID: "alert-1", Alert: domain.Alert{Location: "Gir"}, Granularity: domain.GranularityReserve}}
	require.NoError(t, hub.LoadBatch(context.Background(), events))

	for _, conn := range []*websocket.Conn{a, b} {
		var msg Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, TypeAlerts, msg.Type)
		require.Len(t, msg.Alerts, 1)
		assert.Equal(t, "alert-1", msg.Alerts[0].ID)
		assert.Equal(t, "Gir", msg.Alerts[0].Alert.Location)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, url, _ := startHub(t)
	conn := dial(t, url)
	require.Equal(t, 1, hub.Subscribers())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, waitFor, 10*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, url, cancel := startHub(t)
	conn := dial(t, url)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())

	// Loading after shutdown is a no-op rather than a hang.
	require.NoError(t, hub.LoadBatch(context.Background(), []domain.AlertEvent{{ID: "late"}}))
}

func TestHub_LoadBatchEmpty(t *testing.T) {
	hub := NewHub(observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, hub.LoadBatch(context.Background(), nil))
}
