package realtime

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHub(log)
}

// dialObserver attaches a websocket client to the hub under the given tenant
// and returns the client side of the connection.
func dialObserver(t *testing.T, hub *Hub, tenantID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Attach(NewConnection(tenantID, "agent-1", ws))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func readFrame(t *testing.T, client *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestHub_NotifyReachesTenantObservers(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	client := dialObserver(t, hub, "tenant-1")

	hub.Notify("tenant-1", EventNewMessage, map[string]string{"conversation_id": "convo-1"})

	frame := readFrame(t, client)
	require.Equal(t, EventNewMessage, frame["event"])
	data, ok := frame["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "convo-1", data["conversation_id"])
}

func TestHub_NotifyIsScopedToTenant(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	other := dialObserver(t, hub, "tenant-2")

	hub.Notify("tenant-1", EventConversationUpdate, map[string]string{"conversation_id": "convo-1"})

	// The other tenant's observer must see nothing.
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	require.Error(t, err)
}

func TestHub_NotifyWithNoObserversIsSafe(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	hub.Notify("tenant-empty", EventMessageStatus, map[string]string{"message_id": "wamid.1"})
}

func TestHub_DetachStopsDelivery(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	upgrader := websocket.Upgrader{}
	connCh := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn := NewConnection("tenant-1", "agent-1", ws)
		hub.Attach(conn)
		connCh <- conn
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	conn := <-connCh
	hub.Detach(conn)

	hub.Notify("tenant-1", EventNewMessage, map[string]string{"conversation_id": "convo-1"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = client.ReadMessage()
	require.Error(t, err)
}
