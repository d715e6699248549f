package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lox/casinoholdem/internal/game"
	"github.com/lox/casinoholdem/poker"
)

// Connection represents a WebSocket connection following one session
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	session   *game.Session
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

func (s *Server) handleWebSocket(c *gin.Context, session *game.Session) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(ws, s, session)
	s.subscribe(session.ID(), conn)
	conn.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-conn.ctx.Done()
		s.unsubscribe(session.ID(), conn)
	}()

	conn.sendState("")
}

// NewConnection creates a new connection wrapper
func NewConnection(ws *websocket.Conn, server *Server, session *game.Session) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    ws,
		send:    make(chan *Message, 64),
		server:  server,
		session: session,
		logger:  server.logger.WithPrefix("conn").With("session", session.ID()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage validates and applies a client message
func (c *Connection) handleMessage(data []byte) {
	msg, err := c.server.validator.ParseClientMessage(data)
	if err != nil {
		c.logger.Debug("Rejected message", "error", err)
		c.sendError("", "invalid_message", err.Error())
		return
	}

	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeStart:
		err = c.session.Start(c.ctx)
	case MessageTypeCall:
		err = c.session.Call(c.ctx)
	case MessageTypeFold:
		err = c.session.Fold()
	case MessageTypeSnapshot:
		c.sendState(msg.RequestID)
		return
	}

	if err != nil {
		c.logger.Debug("Action rejected", "type", msg.Type, "error", err)
		// A voided round still changed state that subscribers should see.
		if errors.Is(err, poker.ErrEmptyDeck) {
			c.server.broadcast(c.session, nil, "")
		}
		_, code := errorCode(err)
		c.sendError(msg.RequestID, code, err.Error())
		return
	}
	c.server.broadcast(c.session, c, msg.RequestID)
}

func (c *Connection) sendState(requestID string) {
	msg, err := NewMessage(MessageTypeState, c.session.Snapshot(), c.server.clock.Now())
	if err != nil {
		c.logger.Error("Failed to encode state", "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg) // Ignore errors on closing connections
}

func (c *Connection) sendError(requestID, code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message}, c.server.clock.Now())
	if err != nil {
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg) // Ignore errors on closing connections
}
