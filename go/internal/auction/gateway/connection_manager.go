// Package gateway serves the auction protocol over websockets and exposes read-only room
// state over HTTP.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/bidroom/go/internal/auction/lobby"
	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
)

var errRateLimited = errors.New("too many messages, slow down")

// ConnectionManager owns every live websocket and feeds inbound frames to the lobby.
type ConnectionManager struct {
	ctx   context.Context
	lobby *lobby.Lobby

	mu          sync.RWMutex
	connections map[*Connection]struct{}

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection is one websocket client. It implements room.Client.
type Connection struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	manager *ConnectionManager
	session *lobby.Session
	limiter *rate.Limiter

	closeOnce sync.Once
	closed    chan struct{}

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for websocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	DispatchTimeout time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	MessageRate     rate.Limit
	MessageBurst    int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		DispatchTimeout: 15 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      256,
		MessageRate:     20,
		MessageBurst:    40,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. Dispatch contexts derive from ctx.
func NewConnectionManager(ctx context.Context, l *lobby.Lobby, config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		ctx:         ctx,
		lobby:       l,
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection upgrades an HTTP request and starts the connection pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, cm.config.SendBuffer),
		manager:     cm,
		limiter:     rate.NewLimiter(cm.config.MessageRate, cm.config.MessageBurst),
		closed:      make(chan struct{}),
		ConnectedAt: time.Now(),
	}
	c.session = cm.lobby.NewSession(c)

	cm.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.id).
		Str("remote_addr", r.RemoteAddr).
		Msg("websocket connection established")

	return nil
}

func (cm *ConnectionManager) register(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[c] = struct{}{}

	log.Debug().
		Str("connection_id", c.id).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregister(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.connections[c]; !ok {
		return
	}
	delete(cm.connections, c)

	log.Info().Str("connection_id", c.id).Msg("connection unregistered")
}

// Count returns the number of open connections.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes every open connection.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for c := range cm.connections {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}

// ID implements room.Client.
func (c *Connection) ID() string { return c.id }

// Send implements room.Client. It never blocks: a client that cannot keep up is dropped.
func (c *Connection) Send(msg protocol.Outbound) {
	data, err := protocol.EncodeOutbound(msg)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.id).Msg("failed to encode outbound message")
		return
	}

	select {
	case <-c.closed:
	case c.send <- data:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Msg("connection send buffer full, closing connection")
		c.close()
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.lobby.Disconnect(c.session)
		c.manager.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected websocket close error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))

		c.handleClientMessage(message)
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	if !c.limiter.Allow() {
		c.Send(protocol.Error{Message: errRateLimited.Error()})
		return
	}

	msg, err := protocol.DecodeInbound(message)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.id).Msg("rejected client message")
		c.Send(protocol.Error{Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.manager.ctx, c.manager.config.DispatchTimeout)
	defer cancel()

	if err := c.manager.lobby.Dispatch(ctx, c.session, msg); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.id).
			Str("action", string(msg.Action())).
			Msg("client action rejected")
	}
}
