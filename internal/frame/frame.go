// ABOUTME: Content-Length framing for JSON-RPC messages on a byte stream
// ABOUTME: One frame per Read call; header parsing, size limits, and FramingError

package frame

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	headerContentLength = "Content-Length"
	headerDelimiter     = "\r\n\r\n"

	// maxHeaderLine bounds a single header line so a peer that never sends
	// a newline cannot grow memory without limit.
	maxHeaderLine = 4096
)

// Limits constrains decode memory use.
type Limits struct {
	MaxBodyBytes int
}

// DefaultLimits returns the limits used when none are supplied.
func DefaultLimits() Limits {
	return Limits{MaxBodyBytes: 16 * 1024 * 1024}
}

// ErrFraming is matched by every *FramingError via errors.Is.
var ErrFraming = errors.New("frame: malformed frame")

// FramingError reports a malformed or truncated frame. It is fatal to the
// connection it was read from.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame: %s: %v", e.Reason, e.Err)
	}
	return "frame: " + e.Reason
}

func (e *FramingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFraming) true for any FramingError.
func (e *FramingError) Is(target error) bool { return target == ErrFraming }

// Header renders the frame header for a body of n bytes.
func Header(n int) []byte {
	return []byte(headerContentLength + ": " + strconv.Itoa(n) + headerDelimiter)
}

// Write emits one frame: the header followed by exactly len(body) bytes.
// Header and body go out in a single Write so concurrent writers guarded by
// the caller's mutex never interleave partial frames.
func Write(w io.Writer, body []byte) error {
	buf := make([]byte, 0, len(body)+32)
	buf = append(buf, Header(len(body))...)
	buf = append(buf, body...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Encode marshals v to JSON and writes it as one frame.
func Encode(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling frame body: %w", err)
	}
	return Write(w, body)
}

// Reader decodes frames from a byte stream.
type Reader struct {
	br     *bufio.Reader
	limits Limits
}

// NewReader wraps r. A zero Limits value selects DefaultLimits.
func NewReader(r io.Reader, limits Limits) *Reader {
	if limits.MaxBodyBytes <= 0 {
		limits = DefaultLimits()
	}
	return &Reader{br: bufio.NewReader(r), limits: limits}
}

// Read returns the body of the next frame. It returns io.EOF only when the
// stream ends cleanly between frames; any other short read is a FramingError.
func (r *Reader) Read() (json.RawMessage, error) {
	n, err := r.readHeader()
	if err != nil {
		return nil, err
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r.br, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &FramingError{Reason: fmt.Sprintf("body truncated (want %d bytes)", n), Err: io.ErrUnexpectedEOF}
		}
		return nil, err
	}

	if !json.Valid(body) {
		return nil, &FramingError{Reason: "body is not valid JSON"}
	}
	return json.RawMessage(body), nil
}

// readHeader consumes header lines up to the blank delimiter line and
// returns the declared body length.
func (r *Reader) readHeader() (int, error) {
	length := -1
	first := true
	for {
		line, err := r.readLine()
		if err != nil {
			if first && err == io.EOF {
				return 0, io.EOF
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, &FramingError{Reason: "header truncated", Err: io.ErrUnexpectedEOF}
			}
			return 0, err
		}
		first = false

		if line == "" {
			break
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return 0, &FramingError{Reason: fmt.Sprintf("malformed header line %q", line)}
		}
		if !strings.EqualFold(strings.TrimSpace(key), headerContentLength) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, &FramingError{Reason: fmt.Sprintf("invalid Content-Length %q", strings.TrimSpace(value))}
		}
		length = n
	}

	if length < 0 {
		return 0, &FramingError{Reason: "missing Content-Length header"}
	}
	if length > r.limits.MaxBodyBytes {
		return 0, &FramingError{Reason: fmt.Sprintf("body of %d bytes exceeds limit %d", length, r.limits.MaxBodyBytes)}
	}
	return length, nil
}

// readLine reads one header line without its terminator. Both CRLF and bare
// LF terminators are accepted.
func (r *Reader) readLine() (string, error) {
	var buf bytes.Buffer
	for {
		chunk, isPrefix, err := r.br.ReadLine()
		if err != nil {
			if buf.Len() > 0 && errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		buf.Write(chunk)
		if buf.Len() > maxHeaderLine {
			return "", &FramingError{Reason: "header line too long"}
		}
		if !isPrefix {
			return buf.String(), nil
		}
	}
}
