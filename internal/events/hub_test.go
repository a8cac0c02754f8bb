package events_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gstdirectory/internal/events"
	"gstdirectory/pkg/directory"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitClients(t *testing.T, hub *events.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := events.NewHub(zap.NewNop(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	waitClients(t, hub, 2)

	rec := directory.NewRecord("PUNE", "ACME", "27AAAA")
	hub.Publish(directory.Event{Type: directory.EventCreated, Entry: &rec})

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got directory.Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, directory.EventCreated, got.Type)
		require.NotNil(t, got.Entry)
		assert.Equal(t, rec, *got.Entry)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := events.NewHub(zap.NewNop(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	waitClients(t, hub, 0)

	// publishing with nobody listening is a no-op
	hub.Publish(directory.Event{Type: directory.EventReload})
}

func TestCloseDisconnectsAndRejects(t *testing.T) {
	hub := events.NewHub(zap.NewNop(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	late := dial(t, srv)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
