// ABOUTME: Tests for Content-Length framing: round trips, header variants, truncation
// ABOUTME: Verifies declared lengths match body bytes and malformed input yields FramingError

package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundTrip_PreservesStructureAndLength(t *testing.T) {
	messages := []any{
		map[string]any{"jsonrpc": "2.0", "id": float64(1), "method": "governor.now", "params": map[string]any{}},
		map[string]any{"jsonrpc": "2.0", "id": float64(7), "result": map[string]any{"done": true}},
		map[string]any{"jsonrpc": "2.0", "method": "chat.delta", "params": map[string]any{"content": "héllo ✓ 世界"}},
		map[string]any{"jsonrpc": "2.0", "id": float64(3), "error": map[string]any{"code": float64(-32601), "message": "method not found"}},
	}

	var buf bytes.Buffer
	for _, m := range messages {
		if err := Encode(&buf, m); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	r := NewReader(&buf, Limits{})
	for i, want := range messages {
		body, err := r.Read()
		if err != nil {
			t.Fatalf("Read #%d: %v", i, err)
		}
		var got any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("Unmarshal #%d: %v", i, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("message #%d mismatch (-want +got):\n%s", i, diff)
		}
	}

	if _, err := r.Read(); err != io.EOF {
		t.Errorf("Read after last frame = %v; want io.EOF", err)
	}
}

func TestWrite_HeaderDeclaresByteLength(t *testing.T) {
	body := []byte(`{"content":"日本語"}`)
	var buf bytes.Buffer
	if err := Write(&buf, body); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.String()
	header, rest, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header delimiter in %q", raw)
	}
	want := "Content-Length: " + strconv.Itoa(len(body))
	if header != want {
		t.Errorf("header = %q; want %q", header, want)
	}
	if rest != string(body) {
		t.Errorf("body = %q; want %q", rest, body)
	}
}

func TestRead_AcceptsExtraHeadersAndBareLF(t *testing.T) {
	input := "Content-Type: application/json\nContent-Length: 2\n\n{}"
	r := NewReader(strings.NewReader(input), Limits{})
	body, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(body) != "{}" {
		t.Errorf("body = %q; want %q", body, "{}")
	}
}

func TestRead_OneFramePerCall(t *testing.T) {
	input := "Content-Length: 1\r\n\r\n1Content-Length: 1\r\n\r\n2"
	r := NewReader(strings.NewReader(input), Limits{})
	for _, want := range []string{"1", "2"} {
		body, err := r.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(body) != want {
			t.Errorf("body = %q; want %q", body, want)
		}
	}
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing content length", "Content-Type: x\r\n\r\n{}"},
		{"non numeric length", "Content-Length: abc\r\n\r\n{}"},
		{"negative length", "Content-Length: -4\r\n\r\n{}"},
		{"header without colon", "garbage\r\n\r\n{}"},
		{"truncated header", "Content-Length: 10\r\n"},
		{"truncated body", "Content-Length: 10\r\n\r\n{}"},
		{"invalid json body", "Content-Length: 3\r\n\r\n{x}"},
		{"partial first line", "Content-Len"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), Limits{})
			_, err := r.Read()
			if !errors.Is(err, ErrFraming) {
				t.Fatalf("Read err = %v; want FramingError", err)
			}
			var fe *FramingError
			if !errors.As(err, &fe) {
				t.Fatalf("errors.As(*FramingError) failed for %v", err)
			}
		})
	}
}

func TestRead_BodyOverLimit(t *testing.T) {
	input := "Content-Length: 100\r\n\r\n"
	r := NewReader(strings.NewReader(input), Limits{MaxBodyBytes: 10})
	_, err := r.Read()
	if !errors.Is(err, ErrFraming) {
		t.Errorf("Read err = %v; want FramingError", err)
	}
}

func TestRead_TruncatedBodyWrapsUnexpectedEOF(t *testing.T) {
	r := NewReader(strings.NewReader("Content-Length: 5\r\n\r\n{}"), Limits{})
	_, err := r.Read()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Read err = %v; want wrapped io.ErrUnexpectedEOF", err)
	}
}

func TestRead_EmptyStreamIsEOF(t *testing.T) {
	r := NewReader(strings.NewReader(""), Limits{})
	if _, err := r.Read(); err != io.EOF {
		t.Errorf("Read = %v; want io.EOF", err)
	}
}
