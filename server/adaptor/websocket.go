package adaptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/wire"
	"go.uber.org/zap"
)

var errFrameTooLarge = errors.New("message too large")

// connection is one WebSocket session. The read loop runs on the handler
// goroutine; writeLoop is the only writer once the session has subscribed.
type connection struct {
	a         *Adaptor
	conn      *websocket.Conn
	remote    string
	userAgent string
	logger    *zap.Logger

	sessionID string
	codec     wire.Codec
	joined    bool
}

func (a *Adaptor) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("WebSocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	c := &connection{
		a:         a,
		conn:      conn,
		remote:    r.RemoteAddr,
		userAgent: r.UserAgent(),
		logger:    a.logger.With(zap.String("remote", r.RemoteAddr)),
	}
	c.serve(context.WithoutCancel(r.Context()))
}

func (c *connection) serve(ctx context.Context) {
	defer c.conn.Close()
	defer func() {
		if r := recover(); r != nil {
			c.a.metrics.RecoveredPanic()
			c.logger.Error("Recovered panic in connection", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.a.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.a.opts.PongWait))
	})

	join, err := c.awaitJoin()
	if err != nil {
		c.logDisconnect(err)
		return
	}

	c.sessionID = strings.TrimSpace(join.SessionID)
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.logger = c.logger.With(zap.String("session_id", c.sessionID))

	sub, err := c.a.broadcaster.Subscribe(c.sessionID)
	if err != nil {
		c.logger.Info("Rejected connection", zap.Error(err))
		c.writeDirect(&wire.Error{Message: "session already joined"})
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session already joined"),
			time.Now().Add(c.a.opts.WriteWait))
		return
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop(sub, done)
	}()
	defer func() {
		close(done)
		sub.Cancel()
		if c.joined {
			c.a.dispatcher.HandleSessionClosed(ctx, c.sessionID)
		}
		c.conn.Close()
		wg.Wait()
	}()

	c.handleJoin(ctx, join)
	c.readLoop(ctx)
}

// awaitJoin reads until the client sends a join. Anything else is answered
// directly, since the session has no queue yet.
func (c *connection) awaitJoin() (*wire.Join, error) {
	for {
		codec, data, err := c.readFrame()
		if errors.Is(err, errFrameTooLarge) {
			c.a.metrics.Malformed()
			c.codec = codec
			c.writeDirect(&wire.Error{Message: errFrameTooLarge.Error()})
			continue
		}
		if err != nil {
			return nil, err
		}
		c.codec = codec

		m, err := wire.DecodeClient(codec, data)
		if err != nil {
			c.a.metrics.Malformed()
			c.logger.Debug("Malformed frame before join", zap.Error(err))
			c.writeDirect(&wire.Error{Message: malformedMessage(err)})
			continue
		}
		if join, ok := m.(*wire.Join); ok {
			return join, nil
		}
		c.writeDirect(&wire.Error{Message: "join required"})
	}
}

func (c *connection) handleJoin(ctx context.Context, join *wire.Join) {
	userAgent := join.UserAgent
	if userAgent == "" {
		userAgent = c.userAgent
	}
	err := c.a.dispatcher.HandleRequest(ctx, c.sessionID, domain.JoinRequest{
		SessionID: c.sessionID,
		UserAgent: userAgent,
		Remote:    c.remote,
	})
	if err != nil {
		c.logger.Info("Join rejected", zap.Error(err))
		return
	}
	c.joined = true
}

func (c *connection) readLoop(ctx context.Context) {
	for {
		codec, data, err := c.readFrame()
		if errors.Is(err, errFrameTooLarge) {
			c.a.metrics.Malformed()
			c.notify(errFrameTooLarge.Error())
			continue
		}
		if err != nil {
			c.logDisconnect(err)
			return
		}

		m, err := wire.DecodeClient(codec, data)
		if err != nil {
			c.a.metrics.Malformed()
			c.logger.Debug("Malformed frame", zap.Error(err))
			c.notify(malformedMessage(err))
			continue
		}

		if join, ok := m.(*wire.Join); ok {
			c.handleJoin(ctx, join)
			continue
		}
		req, err := toRequest(c.sessionID, m)
		if err != nil {
			c.a.metrics.Malformed()
			c.notify(malformedMessage(err))
			continue
		}
		if err := c.a.dispatcher.HandleRequest(ctx, c.sessionID, req); err != nil {
			c.logger.Debug("Request not applied",
				zap.String("type", req.Type().String()),
				zap.Error(err))
		}
	}
}

func (c *connection) writeLoop(sub *domain.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(c.a.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				select {
				case <-done:
					return
				default:
				}
				// Evicted for falling behind, or the server is shutting down.
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "event queue closed"),
					time.Now().Add(c.a.opts.WriteWait))
				c.conn.Close()
				return
			}
			if err := c.writeEvent(event); err != nil {
				c.logger.Debug("Write failed", zap.Error(err))
				c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.a.opts.WriteWait)); err != nil {
				c.conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (c *connection) writeEvent(event domain.Event) error {
	m, err := toMessage(event)
	if err != nil {
		return err
	}
	return c.writeDirect(m)
}

// writeDirect must only be called by the goroutine that owns writing.
func (c *connection) writeDirect(m wire.Message) error {
	codec := c.codec
	if codec == nil {
		codec = wire.JSON
	}
	data, err := wire.Encode(codec, m)
	if err != nil {
		return err
	}
	frameType := websocket.TextMessage
	if codec.Binary() {
		frameType = websocket.BinaryMessage
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.a.opts.WriteWait))
	return c.conn.WriteMessage(frameType, data)
}

// notify queues an error for this session behind any events already queued.
func (c *connection) notify(message string) {
	if err := c.a.broadcaster.SendTo(c.sessionID, domain.NewErrorEvent(message)); err != nil {
		c.logger.Debug("Error notice not delivered", zap.Error(err))
	}
}

// readFrame reads one frame of at most MaxMessageBytes. A larger frame is
// drained and reported as errFrameTooLarge, leaving the connection usable.
func (c *connection) readFrame() (wire.Codec, []byte, error) {
	messageType, r, err := c.conn.NextReader()
	if err != nil {
		return nil, nil, err
	}
	codec := wire.JSON
	if messageType == websocket.BinaryMessage {
		codec = wire.CBOR
	}
	limit := c.a.opts.MaxMessageBytes
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, nil, err
	}
	if int64(len(data)) > limit {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, nil, err
		}
		return codec, nil, errFrameTooLarge
	}
	return codec, data, nil
}

func (c *connection) logDisconnect(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
		c.logger.Info("Client disconnected with error", zap.Error(err))
		return
	}
	c.logger.Debug("Client disconnected", zap.Error(err))
}

func malformedMessage(err error) string {
	if errors.Is(err, wire.ErrUnknownType) {
		return fmt.Sprintf("unknown message type: %v", err)
	}
	return "malformed message"
}
