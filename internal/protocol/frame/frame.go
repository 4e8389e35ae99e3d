package frame

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	headerContentLength = "Content-Length: "
	headerContentType   = "Content-Type: "
)

var (
	ErrMalformedHeader      = errors.New("frame: malformed header line")
	ErrUnknownHeader        = errors.New("frame: unknown header")
	ErrMissingContentLength = errors.New("frame: missing Content-Length")
	ErrInvalidContentLength = errors.New("frame: invalid Content-Length")
	ErrPayloadTooLarge      = errors.New("frame: payload too large")
	ErrTruncatedPayload     = errors.New("frame: truncated payload")
	ErrInvalidPayload       = errors.New("frame: payload is not a JSON object")
)

// Frame is one complete wire message: the declared byte length and the
// payload exactly as it arrived. The payload is never re-marshaled, so
// re-emitting a frame preserves key order, whitespace, everything.
type Frame struct {
	ContentLength int
	Payload       []byte

	// ID is the raw top-level "id" value of the payload, if present.
	// It exists only for logging; notifications have none.
	ID json.RawMessage
}

// HasID reports whether the payload carried a top-level id field.
func (f Frame) HasID() bool {
	return len(f.ID) > 0
}

// Limits constrains frame decode memory use.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 64 * 1024 * 1024}
}

// ReadFrame decodes the next frame from r: CRLF-terminated header lines up
// to an empty line, then exactly Content-Length payload bytes. The header
// set is closed: Content-Length is required, Content-Type is accepted and
// ignored, and any other line is a hard error. There is no resynchronization
// point past a bad header, so every error here is terminal for the stream.
//
// A clean end of stream before any header byte returns io.EOF untouched so
// callers can tell an orderly shutdown from a mid-frame failure.
func ReadFrame(r *bufio.Reader, limits Limits) (Frame, error) {
	contentLength := -1
	firstLine := true

	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if firstLine && len(line) == 0 {
					return Frame{}, io.EOF
				}
				// EOF inside a header block is a truncated frame,
				// not an orderly shutdown.
				return Frame{}, fmt.Errorf("frame: read header: %w", io.ErrUnexpectedEOF)
			}
			return Frame{}, fmt.Errorf("frame: read header: %w", err)
		}
		firstLine = false
		text, ok := bytes.CutSuffix(line, []byte("\r\n"))
		if !ok {
			return Frame{}, fmt.Errorf("%w: missing CRLF terminator", ErrMalformedHeader)
		}
		if len(text) == 0 {
			break
		}
		if _, ok := bytes.CutPrefix(text, []byte(headerContentType)); ok {
			// Accepted for wire compatibility, never acted on.
			continue
		}
		if value, ok := bytes.CutPrefix(text, []byte(headerContentLength)); ok {
			n, err := strconv.Atoi(string(value))
			if err != nil || n < 0 {
				return Frame{}, fmt.Errorf("%w: %q", ErrInvalidContentLength, string(value))
			}
			contentLength = n
			continue
		}
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownHeader, string(text))
	}

	if contentLength < 0 {
		return Frame{}, ErrMissingContentLength
	}
	if contentLength > limits.MaxPayloadBytes {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, contentLength)
	}

	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrTruncatedPayload
		}
		return Frame{}, fmt.Errorf("frame: read payload: %w", err)
	}

	id, err := peekID(payload)
	if err != nil {
		return Frame{}, err
	}

	return Frame{ContentLength: contentLength, Payload: payload, ID: id}, nil
}

// WriteFrame emits f to w as `Content-Length: N\r\n\r\n` followed by the
// untouched payload bytes. An inbound Content-Type header is deliberately
// not re-emitted: servers and clients key framing off Content-Length alone,
// so forwarding keeps the encoder to a single fixed header line. This is a
// compatibility decision, not an oversight.
func WriteFrame(w io.Writer, f Frame) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", f.ContentLength); err != nil {
		return fmt.Errorf("frame: write header: %w", err)
	}
	if _, err := w.Write(f.Payload); err != nil {
		return fmt.Errorf("frame: write payload: %w", err)
	}
	return nil
}

// peekID parses the payload just far enough to confirm it is a JSON object
// and to extract a raw top-level id, if any. A payload that does not parse
// is a hard error: a relay must not silently forward corrupted traffic.
func peekID(payload []byte) (json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return doc["id"], nil
}
