package participant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
)

// Conn is one transport session with the auction server.
type Conn interface {
	Send(ctx context.Context, msg protocol.Inbound) error
	Receive(ctx context.Context) (protocol.Outbound, error)
	Close() error
}

// Dialer opens a new Conn.
type Dialer func(ctx context.Context) (Conn, error)

const writeTimeout = 10 * time.Second

// WSConn is a Conn over a gorilla websocket.
type WSConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// Dial connects to the gateway's websocket endpoint, e.g. ws://localhost:8080/ws.
func Dial(ctx context.Context, url string) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	log.Debug().Str("url", url).Msg("connected to auction server")
	return &WSConn{conn: conn}, nil
}

// WebSocketDialer returns a Dialer for url.
func WebSocketDialer(url string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		return Dial(ctx, url)
	}
}

// Send writes one event. Safe for concurrent use.
func (c *WSConn) Send(_ context.Context, msg protocol.Inbound) error {
	data, err := protocol.EncodeInbound(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", msg.Action(), err)
	}
	return nil
}

// Receive reads the next event. It must only be called from one goroutine.
func (c *WSConn) Receive(ctx context.Context) (protocol.Outbound, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to read message: %w", err)
		}

		msg, err := protocol.DecodeOutbound(data)
		if errors.Is(err, protocol.ErrUnknownType) {
			log.Debug().Err(err).Msg("skipping unknown server event")
			continue
		}
		if err != nil {
			return nil, err
		}
		return msg, nil
	}
}

func (c *WSConn) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
