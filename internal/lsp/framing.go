// Package lsp implements the Language Server Protocol base framing: a header
// block terminated by an empty line followed by a Content-Length body.
package lsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const headerContentLength = "Content-Length"

// DefaultMaxMessageSize bounds a single message body
const DefaultMaxMessageSize = 64 * 1024 * 1024

// ErrMessageTooLarge is returned for bodies above the reader's limit
var ErrMessageTooLarge = errors.New("lsp message exceeds maximum size")

// FramingError reports input that is not a well-formed frame. Raw holds
// every byte consumed from the stream for the failed frame.
type FramingError struct {
	Raw []byte
	Err error
}

func (e *FramingError) Error() string {
	return e.Err.Error()
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// Frame is one framed message. Header holds the raw header block including
// the terminating blank line so it can be forwarded unchanged.
type Frame struct {
	Header []byte
	Body   []byte
}

// Bytes returns the frame exactly as it appeared on the wire
func (f Frame) Bytes() []byte {
	out := make([]byte, 0, len(f.Header)+len(f.Body))
	out = append(out, f.Header...)
	return append(out, f.Body...)
}

// Reader reads framed messages
type Reader struct {
	r       *bufio.Reader
	maxSize int
}

// NewReader creates a reader with the default size limit
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultMaxMessageSize)
}

// NewReaderSize creates a reader rejecting bodies larger than maxSize
func NewReaderSize(r io.Reader, maxSize int) *Reader {
	return &Reader{r: bufio.NewReader(r), maxSize: maxSize}
}

// Remaining returns a reader over the unconsumed input, including any
// bytes already buffered
func (r *Reader) Remaining() io.Reader {
	return r.r
}

// ReadFrame reads the next message. It returns io.EOF only when the stream
// ends cleanly between messages; other failures are a *FramingError.
func (r *Reader) ReadFrame() (Frame, error) {
	var header []byte
	length := -1

	fail := func(raw []byte, err error) (Frame, error) {
		return Frame{}, &FramingError{Raw: raw, Err: err}
	}

	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && len(header) == 0 && line == "" {
				return Frame{}, io.EOF
			}
			header = append(header, line...)
			if err == io.EOF {
				return fail(header, io.ErrUnexpectedEOF)
			}
			return fail(header, err)
		}
		header = append(header, line...)

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}

		name, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return fail(header, fmt.Errorf("malformed header line: %q", trimmed))
		}
		if strings.EqualFold(strings.TrimSpace(name), headerContentLength) {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return fail(header, fmt.Errorf("invalid Content-Length: %q", strings.TrimSpace(value)))
			}
			length = n
		}
	}

	if length < 0 {
		return fail(header, fmt.Errorf("missing Content-Length header"))
	}
	if r.maxSize > 0 && length > r.maxSize {
		return fail(header, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length))
	}

	body := make([]byte, length)
	if n, err := io.ReadFull(r.r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fail(append(header, body[:n]...), fmt.Errorf("failed to read message body: %w", err))
	}
	return Frame{Header: header, Body: body}, nil
}

// WriteMessage frames body with a Content-Length header
func WriteMessage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "%s: %d\r\n\r\n", headerContentLength, len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
