package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/observability"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; inbound frames carry only
	// small JSON commands
	maxMessageSize = 4 * 1024

	// Outbound queue depth; sound_data frames are large, so keep room
	sendQueueSize = 64
)

// Conn is one plugin socket connection. It owns the per-connection
// protocol state and the authentication timer.
type Conn struct {
	id       string
	sock     *websocket.Conn
	send     chan []byte
	machine  *Machine
	registry *Registry
	log      *logger.Logger
	metrics  *observability.Metrics

	stateMu sync.Mutex
	state   State

	authTimer *time.Timer
	quit      chan struct{}
	quitOnce  sync.Once
}

// NewConn wraps an upgraded socket. The authentication timer is armed
// immediately: a connection that never authenticates is closed after
// authTimeout.
func NewConn(id string, sock *websocket.Conn, machine *Machine, registry *Registry, authTimeout time.Duration, log *logger.Logger, metrics *observability.Metrics) *Conn {
	c := &Conn{
		id:       id,
		sock:     sock,
		send:     make(chan []byte, sendQueueSize),
		machine:  machine,
		registry: registry,
		log:      log.WithConnID(id),
		metrics:  metrics,
	}
	c.quit = make(chan struct{})
	c.authTimer = time.AfterFunc(authTimeout, func() {
		c.log.Info("authentication timeout")
		c.Kick("Authentication timeout")
	})
	return c
}

// Send queues a message for the peer. A peer that cannot keep up with
// its queue is dropped.
func (c *Conn) Send(message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.log.LogError(err, "failed to marshal outbound message")
		return
	}

	select {
	case c.send <- payload:
	default:
		c.log.Warn("send queue full, dropping connection")
		c.close()
	}
}

// Kick emits an auth_error and closes the connection once the write
// pump has flushed it.
func (c *Conn) Kick(reason string) {
	c.Send(authError(reason))
	c.close()
}

// close signals both pumps to stop. Safe to call more than once.
func (c *Conn) close() {
	c.quitOnce.Do(func() {
		close(c.quit)
	})
}

// currentState reads the protocol state
func (c *Conn) currentState() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// ReadPump consumes inbound frames until the peer disconnects. Messages
// are handled in arrival order on this goroutine, so the displacement
// sequence inside Register never interleaves with another frame from
// the same connection.
func (c *Conn) ReadPump() {
	defer func() {
		c.authTimer.Stop()
		c.teardown()
		c.log.Debug("read pump ended")
	}()

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("read error", "error", err.Error())
			}
			return
		}

		c.handle(data)
	}
}

// handle runs one inbound frame through the state machine
func (c *Conn) handle(data []byte) {
	in := ParseInbound(data)

	if c.metrics != nil {
		msgType := in.Type
		if in.Malformed {
			msgType = "malformed"
		}
		c.metrics.PluginMessages.WithLabelValues(msgType).Inc()
	}

	if in.Type == TypeAuth {
		// Disarm the countdown before attempting the lookup; a failed
		// auth closes the connection anyway
		c.authTimer.Stop()
	}

	prior := c.currentState()
	res := c.machine.Handle(context.Background(), prior, in)

	c.stateMu.Lock()
	c.state = res.State
	c.stateMu.Unlock()

	if res.Register {
		// Rebinding to another identity releases the old entry first,
		// otherwise one socket would occupy two registry slots
		if prior.Authenticated && prior.SteamID != res.State.SteamID {
			c.registry.UnregisterIfCurrent(prior.SteamID, c)
		}
		c.registry.Register(res.State.SteamID, c)
	}

	for _, msg := range res.Messages {
		c.Send(msg)
	}

	if res.Close {
		c.close()
	}
}

// teardown unbinds this connection from the registry. Compare-and-delete
// semantics make this safe when a newer session already displaced us.
func (c *Conn) teardown() {
	state := c.currentState()
	if state.Authenticated {
		c.registry.UnregisterIfCurrent(state.SteamID, c)
	}
	c.close()
	c.sock.Close()
}

// WritePump flushes queued messages and keeps the connection alive with
// pings. On shutdown it drains the queue so a final auth_error reaches
// the peer before the close frame.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.quit:
			// Drain anything still queued, then say goodbye
			for {
				select {
				case message := <-c.send:
					c.sock.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.sock.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				default:
					c.sock.SetWriteDeadline(time.Now().Add(writeWait))
					c.sock.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		}
	}
}
