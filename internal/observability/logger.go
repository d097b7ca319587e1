package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeRequest    EventType = "request"
	EventTypePlan       EventType = "plan"
	EventTypeFallback   EventType = "fallback"
	EventTypeValidation EventType = "validation"
	EventTypeCost       EventType = "cost"
	EventTypeHeartbeat  EventType = "heartbeat"
	EventTypeLLM        EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging. A nil *Logger discards events.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger(logDir string) *Logger {
	return NewLoggerTo(os.Stdout, logDir)
}

// NewLoggerTo writes events to w. LLM transcripts also go to
// <logDir>/llm.jsonl unless logDir is empty.
func NewLoggerTo(w io.Writer, logDir string) *Logger {
	l := &Logger{
		out:     w,
		maxSize: 10 * 1024 * 1024, // 10MB
	}
	if logDir != "" {
		l.llmLogPath = filepath.Join(logDir, "llm.jsonl")
	}
	return l
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"error\": \"failed to marshal event: %v\"}", err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogRequest(requestID, route string, status int, elapsed time.Duration) {
	l.Log(Event{
		Type:      EventTypeRequest,
		RequestID: requestID,
		Data: map[string]any{
			"route":      route,
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

func (l *Logger) LogPlan(requestID, source string, steps, emails int) {
	l.Log(Event{
		Type:      EventTypePlan,
		RequestID: requestID,
		Data: map[string]any{
			"source": source,
			"steps":  steps,
			"emails": emails,
		},
	})
}

func (l *Logger) LogFallback(requestID, reason string) {
	l.Log(Event{
		Type:      EventTypeFallback,
		RequestID: requestID,
		Data:      map[string]string{"reason": reason},
	})
}

func (l *Logger) LogValidation(requestID string, valid bool, issues any) {
	l.Log(Event{
		Type:      EventTypeValidation,
		RequestID: requestID,
		Data: map[string]any{
			"valid":  valid,
			"issues": issues,
		},
	})
}

func (l *Logger) LogCost(requestID string, promptTokens, completionTokens int, model string) {
	l.Log(Event{
		Type:      EventTypeCost,
		RequestID: requestID,
		Data: map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
			"model":             model,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(requestID, stage string, prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type:      EventTypeLLM,
		RequestID: requestID,
		Data: map[string]any{
			"stage":      stage,
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}
