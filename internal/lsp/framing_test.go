package lsp

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReader_ReadFrame(t *testing.T) {
	input := "Content-Length: 17\r\n\r\n{\"jsonrpc\":\"2.0\"}" +
		"Content-Type: application/vscode-jsonrpc; charset=utf-8\r\ncontent-length: 2\r\n\r\n{}"

	r := NewReader(strings.NewReader(input))

	first, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0"}`, string(first.Body))
	assert.Equal(t, "Content-Length: 17\r\n\r\n", string(first.Header))

	second, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(second.Body))
	assert.True(t, strings.HasPrefix(string(second.Header), "Content-Type:"))

	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing_length",
			input: "Content-Type: x\r\n\r\n{}",
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "missing Content-Length") },
		},
		{
			name:  "bad_length",
			input: "Content-Length: abc\r\n\r\n",
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "invalid Content-Length") },
		},
		{
			name:  "malformed_header",
			input: "garbage\r\n\r\n",
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "malformed header") },
		},
		{
			name:  "truncated_body",
			input: "Content-Length: 10\r\n\r\n{}",
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, io.ErrUnexpectedEOF) },
		},
		{
			name:  "truncated_header",
			input: "Content-Length: 10\r\n",
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, io.ErrUnexpectedEOF) },
		},
		{
			name:  "too_large",
			input: "Content-Length: 100\r\n\r\n",
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMessageTooLarge) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReaderSize(strings.NewReader(tt.input), 50).ReadFrame()
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestReader_FramingErrorKeepsConsumedBytes(t *testing.T) {
	input := "starting server\nContent-Length: 2\r\n\r\n{}"
	r := NewReader(strings.NewReader(input))

	_, err := r.ReadFrame()
	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
	assert.Equal(t, "starting server\n", string(framingErr.Raw))

	rest, err := io.ReadAll(r.Remaining())
	require.NoError(t, err)
	assert.Equal(t, input, string(framingErr.Raw)+string(rest))
}

func TestReader_TruncatedBodyKeepsPartialBody(t *testing.T) {
	_, err := NewReader(strings.NewReader("Content-Length: 10\r\n\r\n{}")).ReadFrame()

	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
	assert.Equal(t, "Content-Length: 10\r\n\r\n{}", string(framingErr.Raw))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFraming_PropertyBased_RoundTripPreservesBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bodies := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 0, 256), 1, 8).Draw(t, "bodies")

		var wire bytes.Buffer
		for _, body := range bodies {
			require.NoError(t, WriteMessage(&wire, body))
		}
		original := append([]byte(nil), wire.Bytes()...)

		r := NewReader(&wire)
		var forwarded bytes.Buffer
		for _, body := range bodies {
			frame, err := r.ReadFrame()
			require.NoError(t, err)
			assert.Equal(t, body, frame.Body)
			forwarded.Write(frame.Bytes())
		}

		_, err := r.ReadFrame()
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, original, forwarded.Bytes(), "forwarding frames must not alter the stream")
	})
}
