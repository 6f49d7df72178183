package llm

import (
	"context"
	"io"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the external text-in/text-out service: the only slow,
// failure-prone dependency of a chat exchange. Implementations must not
// be called while holding database locks.
type Client interface {
	// Reply generates the counselor's answer to userText given the
	// prior conversation.
	Reply(ctx context.Context, history []Message, userText string) (string, error)
	// Summarize condenses a rendered conversation into a short summary.
	Summarize(ctx context.Context, conversation string) (string, error)
	// Transcribe converts an uploaded recording to text.
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
