package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/shared/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrUnexpectedReply is returned when the relay answers a join with
// something other than joined or join_failed.
var ErrUnexpectedReply = errors.New("unexpected reply to join")

var errStopped = errors.New("session ended")

// Size is a terminal viewport in character cells.
type Size struct {
	Cols int
	Rows int
}

// Surface is the local terminal the session is rendered on.
type Surface interface {
	io.Writer
	Size() (Size, error)
}

// JoinFailedError carries the relay's reason for refusing a join.
type JoinFailedError struct {
	Reason string
}

func (e *JoinFailedError) Error() string {
	return "join failed: " + e.Reason
}

// Result describes how a session ended.
type Result struct {
	Session string
	Reason  string
}

// Client attaches a local terminal to a relay session.
type Client struct {
	URL          string
	Dialer       *websocket.Dialer
	Header       http.Header
	WriteTimeout time.Duration
	log          *logging.Logger
}

// NewClient creates a client for a websocket URL such as
// ws://localhost:8000/terminal/shell.
func NewClient(url string, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	return &Client{
		URL:          url,
		Dialer:       websocket.DefaultDialer,
		WriteTimeout: 2 * time.Second,
		log:          log.Named("adapter"),
	}
}

// DisconnectNotice is written to the surface when the session ends.
func DisconnectNotice(reason string) string {
	return fmt.Sprintf("\r\n[disconnected: %s]\r\n", reason)
}

// Run joins the session, then relays until it exits or ctx is done.
// Input read after the exit is not forwarded. A Read blocked on input is
// not interrupted; the caller owns that reader.
func (c *Client) Run(ctx context.Context, surface Surface, input io.Reader, sizes <-chan Size) (Result, error) {
	conn, resp, err := c.Dialer.DialContext(ctx, c.URL, c.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return Result{}, fmt.Errorf("dial %s: %w", c.URL, err)
	}
	defer conn.Close()

	s := &stream{client: c, conn: conn, done: make(chan struct{})}
	defer s.stop()

	joined, err := s.join(surface)
	if err != nil {
		return Result{}, err
	}
	log := c.log.With(zap.String("session", joined.Session))
	log.Debug("Joined session", zap.Int("cols", joined.Cols), zap.Int("rows", joined.Rows))

	go func() {
		select {
		case <-ctx.Done():
			s.close("client closed")
			_ = conn.Close()
		case <-s.done:
		}
	}()
	go s.forwardInput(input)
	go s.forwardSizes(sizes)

	result := Result{Session: joined.Session}
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, fmt.Errorf("connection lost: %w", err)
		}

		msg, err := protocol.Decode(frame)
		if err != nil {
			log.Debug("Ignoring malformed frame", zap.Error(err))
			continue
		}

		switch msg.Type {
		case protocol.TypeOutput:
			data, err := msg.Payload()
			if err != nil {
				log.Debug("Ignoring undecodable output", zap.Error(err))
				continue
			}
			if _, err := surface.Write(data); err != nil {
				return result, fmt.Errorf("write surface: %w", err)
			}
		case protocol.TypeExit:
			s.stop()
			result.Reason = msg.Reason
			_, _ = io.WriteString(surface, DisconnectNotice(msg.Reason))
			s.close("session ended")
			return result, nil
		}
	}
}

// stream serializes writes to one connection; gorilla allows a single
// concurrent writer.
type stream struct {
	client *Client
	conn   *websocket.Conn

	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

// stop ends input forwarding. Taking mu orders it against sendInput, so no
// input frame is written once stop returns.
func (s *stream) stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		close(s.done)
	})
}

func (s *stream) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *stream) send(msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(frame)
}

// sendInput forwards keystrokes unless the session has ended.
func (s *stream) sendInput(data []byte) error {
	frame, err := protocol.Encode(protocol.Input(data))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped() {
		return errStopped
	}
	return s.write(frame)
}

// write must be called with mu held.
func (s *stream) write(frame []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.client.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *stream) close(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline := time.Now().Add(s.client.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, text), deadline)
}

func (s *stream) join(surface Surface) (protocol.Message, error) {
	size, err := surface.Size()
	if err != nil {
		// the relay falls back to its default viewport
		size = Size{}
	}
	if err := s.send(protocol.Join(size.Cols, size.Rows)); err != nil {
		return protocol.Message{}, fmt.Errorf("send join: %w", err)
	}

	_, frame, err := s.conn.ReadMessage()
	if err != nil {
		return protocol.Message{}, fmt.Errorf("read join reply: %w", err)
	}
	msg, err := protocol.Decode(frame)
	if err != nil {
		return protocol.Message{}, err
	}

	switch msg.Type {
	case protocol.TypeJoined:
		return msg, nil
	case protocol.TypeJoinFailed:
		return protocol.Message{}, &JoinFailedError{Reason: msg.Reason}
	default:
		return protocol.Message{}, fmt.Errorf("%w: %s", ErrUnexpectedReply, msg.Type)
	}
}

func (s *stream) forwardInput(input io.Reader) {
	if input == nil {
		return
	}
	buf := make([]byte, 4096)
	for {
		n, err := input.Read(buf)
		if n > 0 {
			if sendErr := s.sendInput(buf[:n]); sendErr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *stream) forwardSizes(sizes <-chan Size) {
	if sizes == nil {
		return
	}
	for {
		select {
		case <-s.done:
			return
		case size, ok := <-sizes:
			if !ok {
				return
			}
			if err := s.send(protocol.Resize(size.Cols, size.Rows)); err != nil {
				return
			}
		}
	}
}
