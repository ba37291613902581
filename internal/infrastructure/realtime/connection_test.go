package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialConnection upgrades a real websocket pair and returns the server-side
// Connection with its write loop running, plus the client end.
func dialConnection(t *testing.T, tenantID string) (*Connection, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	connCh := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn := NewConnection(tenantID, "agent-1", ws)
		conn.Start()
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return <-connCh, client
}

func TestConnection_SendAfterCloseDoesNotPanic(t *testing.T) {
	conn, _ := dialConnection(t, "tenant-1")

	conn.Close(websocket.CloseNormalClosure, "bye")

	// Push past the buffer size so both the closed branch and the
	// buffer-full branch of Send are exercised.
	for i := 0; i < 200; i++ {
		_ = conn.Send([]byte(`{"event":"message:new"}`))
	}
}

func TestConnection_ConcurrentSendAndCloseDoesNotPanic(t *testing.T) {
	conn, _ := dialConnection(t, "tenant-1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_ = conn.Send([]byte(`{"event":"message:status"}`))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn.Close(websocket.CloseGoingAway, "gone")
	}()
	wg.Wait()
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	conn, _ := dialConnection(t, "tenant-1")

	conn.Close(websocket.CloseNormalClosure, "first")
	conn.Close(websocket.CloseNormalClosure, "second")
}
