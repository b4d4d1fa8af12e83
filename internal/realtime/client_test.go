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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// wsServer upgrades incoming connections and exposes the server side of the
// socket plus the query the client connected with.
type wsServer struct {
	*httptest.Server
	conns   chan *websocket.Conn
	queries chan map[string]string
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ws := &wsServer{
		conns:   make(chan *websocket.Conn, 4),
		queries: make(chan map[string]string, 4),
	}
	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := map[string]string{}
		for key, values := range r.URL.Query() {
			query[key] = values[0]
		}
		ws.queries <- query

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ws.conns <- conn
	}))
	t.Cleanup(ws.Close)
	return ws
}

func (ws *wsServer) url() string {
	return "ws" + strings.TrimPrefix(ws.URL, "http")
}

func waitFor(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestConnect(t *testing.T) {
	t.Run("sends client id and token in the query", func(t *testing.T) {
		server := newWSServer(t)
		client := NewClient(server.url(), func() string { return "tok-9" }, testLogger())

		require.NoError(t, client.Connect())
		defer client.Disconnect()

		query := <-server.queries
		assert.NotEmpty(t, query["clientId"])
		assert.Equal(t, "tok-9", query["token"])
		assert.True(t, client.IsConnected())
	})

	t.Run("is idempotent", func(t *testing.T) {
		server := newWSServer(t)
		client := NewClient(server.url(), nil, testLogger())

		require.NoError(t, client.Connect())
		defer client.Disconnect()
		require.NoError(t, client.Connect())

		assert.Len(t, server.conns, 1)
	})

	t.Run("unreachable server reports an error", func(t *testing.T) {
		client := NewClient("ws://127.0.0.1:1/ws", nil, testLogger())
		assert.Error(t, client.Connect())
		assert.False(t, client.IsConnected())
	})
}

func TestDispatch(t *testing.T) {
	server := newWSServer(t)
	client := NewClient(server.url(), nil, testLogger())
	require.NoError(t, client.Connect())
	defer client.Disconnect()
	serverConn := <-server.conns

	received := make(chan json.RawMessage, 4)
	unsubscribe := client.OnNewOrder(func(data json.RawMessage) {
		received <- data
	})

	require.NoError(t, serverConn.WriteJSON(frame{
		Event: EventNewOrder,
		Data:  json.RawMessage(`{"id":"o1"}`),
	}))

	select {
	case data := <-received:
		assert.JSONEq(t, `{"id":"o1"}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("event not dispatched")
	}

	t.Run("malformed frames are dropped", func(t *testing.T) {
		require.NoError(t, serverConn.WriteMessage(websocket.TextMessage, []byte("not json")))
		require.NoError(t, serverConn.WriteJSON(frame{Event: EventNewOrder}))
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("valid frame after a malformed one was not dispatched")
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		unsubscribe()
		require.NoError(t, serverConn.WriteJSON(frame{Event: EventNewOrder}))
		select {
		case <-received:
			t.Fatal("handler fired after unsubscribe")
		case <-time.After(150 * time.Millisecond):
		}
	})
}

func TestEmit(t *testing.T) {
	t.Run("without a connection is a no-op", func(t *testing.T) {
		client := NewClient("ws://example.invalid/ws", nil, testLogger())
		client.Emit("ping", nil)
	})

	t.Run("sends the frame to the server", func(t *testing.T) {
		server := newWSServer(t)
		client := NewClient(server.url(), nil, testLogger())
		require.NoError(t, client.Connect())
		defer client.Disconnect()
		serverConn := <-server.conns

		client.Emit("ping", map[string]string{"a": "b"})

		var got frame
		require.NoError(t, serverConn.ReadJSON(&got))
		assert.Equal(t, "ping", got.Event)
		assert.JSONEq(t, `{"a":"b"}`, string(got.Data))
	})
}

func TestOnOrderUpdate(t *testing.T) {
	server := newWSServer(t)
	client := NewClient(server.url(), nil, testLogger())
	require.NoError(t, client.Connect())
	defer client.Disconnect()
	serverConn := <-server.conns

	received := make(chan struct{}, 1)
	unsubscribe := client.OnOrderUpdate("o42", func(json.RawMessage) {
		received <- struct{}{}
	})

	// Joining emits the join command with the order id.
	var join frame
	require.NoError(t, serverConn.ReadJSON(&join))
	assert.Equal(t, commandJoinOrder, join.Event)
	assert.JSONEq(t, `"o42"`, string(join.Data))

	// Scoped events reach the handler.
	require.NoError(t, serverConn.WriteJSON(frame{Event: EventOrderUpdate + ":o42"}))
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("scoped event not dispatched")
	}

	// Leaving emits the leave command.
	unsubscribe()
	var leave frame
	require.NoError(t, serverConn.ReadJSON(&leave))
	assert.Equal(t, commandLeaveOrder, leave.Event)
}

func TestDisconnect(t *testing.T) {
	server := newWSServer(t)
	client := NewClient(server.url(), nil, testLogger())
	require.NoError(t, client.Connect())
	<-server.conns

	client.Disconnect()
	assert.False(t, client.IsConnected())

	// A fresh connect works after a disconnect.
	require.NoError(t, client.Connect())
	defer client.Disconnect()
	waitFor(t, client.IsConnected)
}

func TestConnectionLossClearsState(t *testing.T) {
	server := newWSServer(t)
	client := NewClient(server.url(), nil, testLogger())
	require.NoError(t, client.Connect())
	serverConn := <-server.conns

	require.NoError(t, serverConn.Close())
	waitFor(t, func() bool { return !client.IsConnected() })
}
