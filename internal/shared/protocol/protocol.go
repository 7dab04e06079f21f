// Package protocol defines the terminal relay wire format.
//
// Every frame is a JSON text message with a "type" discriminator:
//
//	client → server: join {cols, rows}, input {data, encoding}, resize {cols, rows}
//	server → client: joined {session, cols, rows}, join_failed {reason},
//	                 output {data, encoding}, exit {reason}
//
// Terminal output is an opaque byte stream, so output frames always carry
// base64 data. A chunk may end in the middle of a multi-byte character;
// the client reassembles the stream, not the relay.
package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Type discriminates wire messages
type Type string

const (
	TypeJoin       Type = "join"
	TypeInput      Type = "input"
	TypeResize     Type = "resize"
	TypeJoined     Type = "joined"
	TypeJoinFailed Type = "join_failed"
	TypeOutput     Type = "output"
	TypeExit       Type = "exit"
)

// Payload encodings for the data field
const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

var ErrMissingType = errors.New("message type is required")

// Message is the single envelope used for every frame in both directions.
type Message struct {
	Type     Type   `json:"type"`
	Session  string `json:"session,omitempty"`
	Cols     int    `json:"cols,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Data     string `json:"data,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Encode serializes a message for a websocket text frame
func Encode(msg Message) ([]byte, error) {
	return sonic.Marshal(msg)
}

// Decode parses a websocket text frame
func Decode(frame []byte) (Message, error) {
	var msg Message
	if err := sonic.Unmarshal(frame, &msg); err != nil {
		return Message{}, fmt.Errorf("decode frame: %w", err)
	}
	if msg.Type == "" {
		return Message{}, ErrMissingType
	}
	return msg, nil
}

// Payload returns the raw bytes carried in Data according to Encoding.
func (m Message) Payload() ([]byte, error) {
	switch m.Encoding {
	case "", EncodingUTF8:
		return []byte(m.Data), nil
	case EncodingBase64:
		b, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %q", m.Encoding)
	}
}

func Join(cols, rows int) Message {
	return Message{Type: TypeJoin, Cols: cols, Rows: rows}
}

// Input carries keystroke bytes; binary-safe.
func Input(data []byte) Message {
	return Message{Type: TypeInput, Data: base64.StdEncoding.EncodeToString(data), Encoding: EncodingBase64}
}

// InputText carries keystrokes as plain text, the way a browser sends them.
func InputText(text string) Message {
	return Message{Type: TypeInput, Data: text}
}

func Resize(cols, rows int) Message {
	return Message{Type: TypeResize, Cols: cols, Rows: rows}
}

func Joined(session string, cols, rows int) Message {
	return Message{Type: TypeJoined, Session: session, Cols: cols, Rows: rows}
}

func JoinFailed(reason string) Message {
	return Message{Type: TypeJoinFailed, Reason: reason}
}

func Output(data []byte) Message {
	return Message{Type: TypeOutput, Data: base64.StdEncoding.EncodeToString(data), Encoding: EncodingBase64}
}

func Exit(reason string) Message {
	return Message{Type: TypeExit, Reason: reason}
}
