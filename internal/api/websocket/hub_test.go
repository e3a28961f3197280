package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newHubConn dials a throwaway upgrade server and returns the server side
// of the connection.
func newHubConn(t *testing.T) *websocket.Conn {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	dialer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { dialer.Close() })

	conn := <-connCh
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastEvictsSlowClientDuringCountPolls(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	go hub.Run()

	// Slow client: unbuffered send channel and no write pump draining it,
	// so the first broadcast must evict it.
	client := &Client{
		hub:    hub,
		conn:   newHubConn(t),
		send:   make(chan []byte),
		logger: zap.NewNop(),
	}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	// Count polls run concurrently with the evicting broadcast; the map
	// mutation and the reads must serialize.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.GetClientCount()
		}
	}()

	hub.PublishProductMovedToPast(1, "Widget A")

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 },
		time.Second, 5*time.Millisecond)
	<-done
}

func TestBroadcastDeliversToHealthyClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	go hub.Run()

	client := &Client{
		hub:    hub,
		conn:   newHubConn(t),
		send:   make(chan []byte, sendBufferSize),
		logger: zap.NewNop(),
	}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	hub.PublishProductMovedToPast(7, "Widget B")

	select {
	case data := <-client.send:
		require.Contains(t, string(data), "product_moved_to_past")
		require.Contains(t, string(data), "Widget B")
	case <-time.After(time.Second):
		t.Fatal("broadcast was not delivered")
	}
	require.Equal(t, 1, hub.GetClientCount(), "buffered client stays registered")
}
