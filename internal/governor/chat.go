// ABOUTME: Content-level view of a chat.stream call
// ABOUTME: Yields non-empty delta text until the terminal response

package governor

import (
	"context"
	"encoding/json"
	"io"
	"iter"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/maude-go/internal/rpc"
)

// ChatStream yields the content of chat.delta notifications.
type ChatStream struct {
	s *rpc.Stream
}

// Next returns the next non-empty delta, or io.EOF when the reply is complete.
func (c *ChatStream) Next(ctx context.Context) (string, error) {
	for {
		raw, err := c.s.Next(ctx)
		if err != nil {
			return "", err
		}
		if content := gjson.GetBytes(raw, "content").String(); content != "" {
			return content, nil
		}
	}
}

// Deltas iterates the remaining deltas. A failure is yielded as the last element.
func (c *ChatStream) Deltas(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			d, err := c.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(d, err) || err != nil {
				return
			}
		}
	}
}

// Result returns the terminal chat.stream result once the stream is done.
func (c *ChatStream) Result() json.RawMessage { return c.s.Result() }

// Close abandons the stream.
func (c *ChatStream) Close() { c.s.Close() }
