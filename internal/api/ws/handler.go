package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/domain/session"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/termrelay/internal/shared/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Joiner opens terminal sessions.
type Joiner interface {
	Join(ctx context.Context, target string, cols, rows int) (*session.Actor, error)
}

// Options tunes the websocket transport.
type Options struct {
	JoinTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

// DefaultOptions returns the transport defaults.
func DefaultOptions() Options {
	return Options{
		JoinTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// OptionsFromConfig maps configuration to transport options.
func OptionsFromConfig(term config.TerminalConfig, server config.ServerConfig) Options {
	return Options{
		JoinTimeout:    term.JoinTimeout,
		WriteTimeout:   term.WriteTimeout,
		PingInterval:   term.PingInterval,
		MaxMessageSize: term.MaxMessageSize,
		AllowedOrigins: server.AllowedOrigins,
	}
}

// Handler serves one terminal session per websocket connection.
type Handler struct {
	sessions Joiner
	opts     Options
	upgrader websocket.Upgrader
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	log      *logging.Logger

	// closing ends every live connection on Shutdown
	closing context.Context
	cancel  context.CancelFunc
	active  sync.WaitGroup
}

// NewHandler creates a handler. metrics may be nil.
func NewHandler(sessions Joiner, opts Options, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	d := DefaultOptions()
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = d.JoinTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = d.WriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = d.PingInterval
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = d.MaxMessageSize
	}
	if log == nil {
		log = logging.NewNop()
	}
	closing, cancel := context.WithCancel(context.Background())

	return &Handler{
		closing:  closing,
		cancel:   cancel,
		sessions: sessions,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     OriginChecker(opts.AllowedOrigins),
		},
		metrics: metrics,
		log:     log.Named("ws"),
	}
}

// WithTracer records a span for every join attempt.
func (h *Handler) WithTracer(tracer *tracing.Tracer) *Handler {
	h.tracer = tracer
	return h
}

// HandleTerminal upgrades GET /terminal/:target and relays the session.
func (h *Handler) HandleTerminal(c *gin.Context) {
	target := c.Param("target")
	if h.closing.Err() != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.String("target", target), zap.Error(err))
		return
	}
	defer conn.Close()

	h.active.Add(1)
	defer h.active.Done()

	served := make(chan struct{})
	defer close(served)
	go func() {
		select {
		case <-h.closing.Done():
			h.closeNormal(conn, "server shutting down")
			_ = conn.Close()
		case <-served:
		}
	}()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	conn.SetReadLimit(h.opts.MaxMessageSize)
	h.serve(c.Request.Context(), conn, target)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, target string) {
	log := h.log.With(zap.String("target", target))

	join, err := h.readJoin(conn)
	if err != nil {
		log.Info("No join request", zap.Error(err))
		h.reject(conn, err.Error())
		return
	}

	actor, err := h.join(ctx, target, join)
	if err != nil {
		h.reject(conn, joinReason(err))
		return
	}
	defer actor.Close()

	sess := actor.Session()
	log = log.With(zap.String("session", sess.Key.String()))

	if err := h.write(conn, protocol.Joined(sess.Key.String(), sess.Viewport.Cols, sess.Viewport.Rows)); err != nil {
		log.Info("Failed to confirm join", zap.Error(err))
		return
	}

	c := &connection{handler: h, conn: conn, actor: actor, log: log}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()

	c.readLoop(ctx)

	// peer gone or session over; either way the child must go
	actor.Close()
	wg.Wait()
}

func (h *Handler) join(ctx context.Context, target string, req protocol.Message) (*session.Actor, error) {
	if h.tracer == nil {
		return h.sessions.Join(ctx, target, req.Cols, req.Rows)
	}

	span, ctx := h.tracer.StartSpan(ctx, "terminal.join")
	span.SetTag("target", target)
	actor, err := h.sessions.Join(ctx, target, req.Cols, req.Rows)
	if err != nil {
		span.SetError(err)
	} else {
		span.SetTag("session", actor.Session().Key.String())
	}
	span.Finish()
	h.tracer.Submit(span)
	return actor, err
}

// Shutdown closes every live connection, which terminates their sessions,
// and waits for them to finish or ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) readJoin(conn *websocket.Conn) (protocol.Message, error) {
	if err := conn.SetReadDeadline(time.Now().Add(h.opts.JoinTimeout)); err != nil {
		return protocol.Message{}, err
	}
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return protocol.Message{}, fmt.Errorf("read join: %w", err)
	}
	msg, err := protocol.Decode(frame)
	if err != nil {
		return protocol.Message{}, err
	}
	if msg.Type != protocol.TypeJoin {
		return protocol.Message{}, fmt.Errorf("expected %s, got %s", protocol.TypeJoin, msg.Type)
	}
	h.recordMessage("in", msg.Type)
	return msg, nil
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	if err := h.write(conn, protocol.JoinFailed(reason)); err != nil {
		return
	}
	h.closeNormal(conn, "join failed")
}

func (h *Handler) write(conn *websocket.Conn, msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return err
	}
	h.recordMessage("out", msg.Type)
	return nil
}

func (h *Handler) closeNormal(conn *websocket.Conn, text string) {
	deadline := time.Now().Add(h.opts.WriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, text), deadline)
}

func (h *Handler) recordMessage(direction string, t protocol.Type) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, string(t))
	}
}

func joinReason(err error) string {
	var joinErr *session.JoinError
	if errors.As(err, &joinErr) {
		return joinErr.Reason
	}
	return err.Error()
}

// connection relays one joined session. writeLoop is the only writer
// after the join handshake.
type connection struct {
	handler *Handler
	conn    *websocket.Conn
	actor   *session.Actor
	log     *logging.Logger
}

func (c *connection) pongWait() time.Duration {
	return 2 * c.handler.opts.PingInterval
}

func (c *connection) readLoop(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("Connection lost", zap.Error(err))
			}
			return
		}

		msg, err := protocol.Decode(frame)
		if err != nil {
			c.log.Debug("Ignoring malformed frame", zap.Error(err))
			continue
		}
		c.handler.recordMessage("in", msg.Type)

		inbound, ok := c.inbound(msg)
		if !ok {
			continue
		}
		if err := c.actor.Send(ctx, inbound); err != nil {
			c.log.Debug("Session no longer accepts input", zap.Error(err))
		}
	}
}

func (c *connection) inbound(msg protocol.Message) (session.Inbound, bool) {
	switch msg.Type {
	case protocol.TypeInput:
		data, err := msg.Payload()
		if err != nil {
			c.log.Debug("Ignoring undecodable input", zap.Error(err))
			return nil, false
		}
		return session.Input{Data: data}, true
	case protocol.TypeResize:
		return session.Resize{Cols: msg.Cols, Rows: msg.Rows}, true
	default:
		c.log.Debug("Ignoring unexpected frame", zap.String("type", string(msg.Type)))
		return nil, false
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(c.handler.opts.PingInterval)
	defer ticker.Stop()

	out := c.actor.Outbound()
	for {
		select {
		case msg, ok := <-out:
			if !ok {
				return
			}
			switch msg := msg.(type) {
			case session.Output:
				if err := c.handler.write(c.conn, protocol.Output(msg.Data)); err != nil {
					c.fail(err)
					return
				}
			case session.Exited:
				if err := c.handler.write(c.conn, protocol.Exit(msg.Reason)); err != nil {
					c.fail(err)
					return
				}
				c.handler.closeNormal(c.conn, "session ended")
				// give the peer a moment to answer the close frame
				_ = c.conn.SetReadDeadline(time.Now().Add(c.handler.opts.WriteTimeout))
				c.discard(out)
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.handler.opts.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.fail(err)
				return
			}
		}
	}
}

// fail breaks the reader out of its loop and keeps the actor unblocked.
func (c *connection) fail(err error) {
	c.log.Info("Write failed, closing connection", zap.Error(err))
	_ = c.conn.Close()
	c.discard(c.actor.Outbound())
}

func (c *connection) discard(out <-chan session.Outbound) {
	for range out {
	}
}
