package transport

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// callback executed when a message is received.
type MessageHandler func(ctx context.Context, connID uuid.UUID, msg []byte)

// callback executed exactly once when the connection terminates.
type OnCloseHandler func(connID uuid.UUID, err error)

type ConnectionConfig struct {
	ReadTimeout time.Duration
	SendBuffer  int
}

// Connection represents a single, thread-safe WebSocket connection. Events
// for one connection are read and handled in order by a single read pump;
// outbound frames go through a buffered send channel drained by the write
// pump, so senders never block on a slow peer.
type Connection struct {
	id     uuid.UUID
	conn   *websocket.Conn
	config ConnectionConfig
	send   chan []byte

	onMessage MessageHandler
	onClose   OnCloseHandler

	done      chan struct{}
	wg        *sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	logger *slog.Logger
}

func NewConnection(parentCtx context.Context, wg *sync.WaitGroup, conn *websocket.Conn, config ConnectionConfig, logger *slog.Logger) *Connection {
	id := uuid.New()
	connCtx, cancel := context.WithCancel(parentCtx)

	if config.SendBuffer <= 0 {
		config.SendBuffer = 256
	}

	// Balanced by Close, whether or not Run was ever called.
	wg.Add(1)

	return &Connection{
		id:     id,
		conn:   conn,
		config: config,
		send:   make(chan []byte, config.SendBuffer),
		done:   make(chan struct{}),
		wg:     wg,
		ctx:    connCtx,
		cancel: cancel,
		logger: logger.With(slog.String("connID", id.String())),
	}
}

func (c *Connection) Run() {
	go c.readPump()
	go c.writePump()

	c.logger.Info("connection established")
}

// readPump pumps messages from the WebSocket connection to the message handler.
func (c *Connection) readPump() {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	for {
		message, err := c.readMessage()
		if err != nil {
			readErr = err
			return
		}
		if message == nil {
			// Non-data frame, nothing to dispatch.
			continue
		}
		if c.onMessage != nil {
			// Pass the connection-scoped context to the handler.
			c.onMessage(c.ctx, c.id, message)
		}
	}
}

// readMessage reads a single data frame, bounded by the read timeout.
// Returns (nil, nil) for frame types that carry no application data.
func (c *Connection) readMessage() ([]byte, error) {
	readCtx := c.ctx
	if c.config.ReadTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		defer cancel()
	}

	typ, r, err := c.conn.Reader(readCtx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText && typ != websocket.MessageBinary {
		return nil, nil
	}
	return io.ReadAll(r)
}

// writePump pumps messages from the send channel to the WebSocket connection.
func (c *Connection) writePump() {
	var writeErr error
	defer func() {
		c.Close(writeErr)
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.Write(c.ctx, websocket.MessageText, message); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusNormalClosure, "request cancelled")
			return
		}
	}
}

// Send queues a message for delivery to the client. It is safe for
// concurrent use and never blocks past connection teardown.
func (c *Connection) Send(message []byte) {
	select {
	case c.send <- message:
	case <-c.ctx.Done():
		c.logger.Warn("Attempted to send on a closed connection")
	}
}

// Close gracefully shuts down the connection and its resources.
func (c *Connection) Close(err error) {
	c.closeOnce.Do(func() {
		status := websocket.CloseStatus(err)
		c.logger.Info("Transport connection closing", slog.Any("reason", err), slog.String("status", status.String()))

		// The send channel is never closed: concurrent Senders race with
		// teardown, and a cancelled context is the safe way to turn them
		// into no-ops.
		c.cancel() // Signal goroutines to stop.
		c.conn.Close(websocket.StatusNormalClosure, "")
		if c.onClose != nil {
			c.onClose(c.id, err)
		}
		c.wg.Done()
		close(c.done)
	})
}

// Done returns a channel that is closed when the connection is fully terminated.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// ID returns the unique identifier of the connection.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

func (c *Connection) SetOnMessageHandler(handler MessageHandler) {
	c.onMessage = handler
}

func (c *Connection) SetOnCloseHandler(handler OnCloseHandler) {
	c.onClose = handler
}
