package gateway

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/rahul/campaigner/internal/agent"
	"github.com/rahul/campaigner/internal/observability"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start begins the message listening loop
	Start() error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

const troubleReply = "I'm having trouble building that campaign right now. Send /reset to start over."

// respond asks the brain for a reply to one inbound message.
func respond(ctx context.Context, brain agent.Brain, chatID, text string) string {
	ctx = observability.WithRequestID(ctx, "")
	reply, err := brain.Think(ctx, chatID, text)
	if err != nil {
		log.Printf("[%s] error thinking: %v", chatID, err)
		return troubleReply
	}
	return reply
}

// Chunk splits text into pieces of at most limit runes, preferring to break
// on blank lines and then on newlines so campaign blocks stay whole.
func Chunk(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		head := string([]rune(text)[:limit])
		cut := strings.LastIndex(head, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(head, "\n")
		}
		if cut <= 0 {
			cut = len(head)
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
