package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event names shared with the backend.
const (
	EventNewOrder          = "new_order"
	EventOrderUpdate       = "order_update"
	EventOrderStatusChange = "order_status_change"
	EventProductUpdate     = "product_update"
	EventMenuUpdate        = "menu_update"

	commandJoinOrder  = "join_order"
	commandLeaveOrder = "leave_order"
	commandJoinRoom   = "join_room"
	commandLeaveRoom  = "leave_room"
)

// frame is the wire shape of every message in both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the raw event payload. Payloads are advisory only; callers
// re-fetch authoritative state instead of trusting them. An alias so that
// consumers can depend on plain function signatures.
type Handler = func(data json.RawMessage)

// TokenSource supplies the bearer token the connection authenticates with.
type TokenSource func() string

// Client manages one shared duplex connection per process. It is constructed
// once at startup and injected wherever subscriptions are needed.
type Client struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string][]*subscription
	nextID   int

	wsURL       string
	clientID    string
	tokenSource TokenSource
	log         *logrus.Logger
}

type subscription struct {
	id      int
	handler Handler
}

func NewClient(wsURL string, tokenSource TokenSource, logger *logrus.Logger) *Client {
	return &Client{
		wsURL:       wsURL,
		clientID:    uuid.NewString(),
		tokenSource: tokenSource,
		handlers:    make(map[string][]*subscription),
		log:         logger,
	}
}

// Connect is idempotent: a live connection is reused rather than duplicated.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.log.Debug("Realtime: Already connected")
		return nil
	}

	target, err := url.Parse(c.wsURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL %s: %w", c.wsURL, err)
	}
	query := target.Query()
	query.Set("clientId", c.clientID)
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			query.Set("token", token)
		}
	}
	target.RawQuery = query.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(target.String(), nil)
	if err != nil {
		c.log.Errorf("Realtime: Connection to %s failed: %v", c.wsURL, err)
		return fmt.Errorf("failed to connect to realtime server: %w", err)
	}

	c.conn = conn
	c.log.Infof("Realtime: Connected to %s", c.wsURL)
	go c.readLoop(conn)
	return nil
}

// Disconnect tears the connection down and resets the shared reference so a
// later Connect starts fresh. Subscriptions survive and re-attach on the new
// connection; missed events are not replayed, callers re-fetch instead.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		c.log.Info("Realtime: Disconnecting")
		_ = conn.Close()
	}
}

// IsConnected reports whether a live connection exists.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// readLoop dispatches inbound frames to the registered handlers until the
// connection drops. Malformed frames are logged and skipped.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := c.conn == conn
			if current {
				c.conn = nil
			}
			c.mu.Unlock()
			if current {
				c.log.Warnf("Realtime: Connection lost: %v", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(payload, &f); err != nil || f.Event == "" {
			c.log.Warnf("Realtime: Dropping malformed frame: %s", payload)
			continue
		}
		c.dispatch(f)
	}
}

func (c *Client) dispatch(f frame) {
	c.mu.Lock()
	subs := append([]*subscription(nil), c.handlers[f.Event]...)
	c.mu.Unlock()

	c.log.Debugf("Realtime: Event %s (%d handlers)", f.Event, len(subs))
	for _, sub := range subs {
		sub.handler(f.Data)
	}
}

// Emit sends a named event to the server. Emitting without a connection is a
// logged no-op, matching the fire-and-forget contract of the event channel.
func (c *Client) Emit(event string, data any) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.log.Warnf("Realtime: Emit %s skipped, not connected", event)
		return
	}

	f := frame{Event: event}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			c.log.Errorf("Realtime: Failed to encode %s payload: %v", event, err)
			return
		}
		f.Data = payload
	}
	if err := conn.WriteJSON(f); err != nil {
		c.log.Warnf("Realtime: Failed to emit %s: %v", event, err)
	}
}

// subscribe registers a handler and returns its unsubscribe closure.
func (c *Client) subscribe(event string, handler Handler) func() {
	c.mu.Lock()
	c.nextID++
	sub := &subscription{id: c.nextID, handler: handler}
	c.handlers[event] = append(c.handlers[event], sub)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.handlers[event]
		for i, candidate := range subs {
			if candidate.id == sub.id {
				c.handlers[event] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// OnNewOrder fires when the kitchen should pick up a new order.
func (c *Client) OnNewOrder(handler Handler) func() {
	return c.subscribe(EventNewOrder, handler)
}

// OnOrderStatusChange fires when any order's status moves.
func (c *Client) OnOrderStatusChange(handler Handler) func() {
	return c.subscribe(EventOrderStatusChange, handler)
}

// OnMenuUpdate fires when the menu composition changes.
func (c *Client) OnMenuUpdate(handler Handler) func() {
	return c.subscribe(EventMenuUpdate, handler)
}

// OnProductUpdate fires when a single product changes.
func (c *Client) OnProductUpdate(handler Handler) func() {
	return c.subscribe(EventProductUpdate, handler)
}

// OnOrderUpdate scopes the subscription to one order: joining its room keeps
// the server from flooding the client with unrelated order events. The
// returned closure leaves the room and removes the handler.
func (c *Client) OnOrderUpdate(orderID string, handler Handler) func() {
	c.Emit(commandJoinOrder, orderID)
	unsubscribe := c.subscribe(EventOrderUpdate+":"+orderID, handler)

	return func() {
		c.Emit(commandLeaveOrder, orderID)
		unsubscribe()
	}
}

// JoinRoom subscribes this connection to a server-side broadcast room.
func (c *Client) JoinRoom(room string) {
	c.Emit(commandJoinRoom, room)
	c.log.Debugf("Realtime: Joined room %s", room)
}

// LeaveRoom leaves a server-side broadcast room.
func (c *Client) LeaveRoom(room string) {
	c.Emit(commandLeaveRoom, room)
	c.log.Debugf("Realtime: Left room %s", room)
}
