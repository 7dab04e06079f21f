package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBrowserFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Message
	}{
		{"join", `{"type":"join","cols":120,"rows":40}`, Message{Type: TypeJoin, Cols: 120, Rows: 40}},
		{"input text", `{"type":"input","data":"ls -la\r"}`, Message{Type: TypeInput, Data: "ls -la\r"}},
		{"resize", `{"type":"resize","cols":100,"rows":30}`, Message{Type: TypeResize, Cols: 100, Rows: 30}},
		{"unknown fields ignored", `{"type":"input","data":"x","extra":true}`, Message{Type: TypeInput, Data: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"cols":80}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestOutputSurvivesSplitUTF8(t *testing.T) {
	// "é" is 0xC3 0xA9; a PTY read can split it across two chunks.
	first := []byte{'a', 0xC3}
	second := []byte{0xA9, 'b'}

	var stream []byte
	for _, chunk := range [][]byte{first, second} {
		frame, err := Encode(Output(chunk))
		require.NoError(t, err)

		msg, err := Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, EncodingBase64, msg.Encoding)

		payload, err := msg.Payload()
		require.NoError(t, err)
		assert.Equal(t, chunk, payload)
		stream = append(stream, payload...)
	}

	assert.Equal(t, "aéb", string(stream))
}

func TestPayloadEncodings(t *testing.T) {
	b, err := InputText("echo hi\n").Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte("echo hi\n"), b)

	b, err = Input([]byte{0x03, 0x00, 0xff}).Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00, 0xff}, b)

	_, err = Message{Type: TypeInput, Data: "!!", Encoding: EncodingBase64}.Payload()
	assert.Error(t, err)

	_, err = Message{Type: TypeInput, Data: "x", Encoding: "rot13"}.Payload()
	assert.Error(t, err)
}

func TestExitFrameShape(t *testing.T) {
	frame, err := Encode(Exit("process exited with code 0"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"exit","reason":"process exited with code 0"}`, string(frame))

	frame, err = Encode(JoinFailed("target not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join_failed","reason":"target not found"}`, string(frame))
}
