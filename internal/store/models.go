package store

import "time"

// Draft is a chat wizard's in-progress intake. Answers are keyed by
// question name.
type Draft struct {
	ChatID    string            `json:"chat_id"`
	Step      int               `json:"step"`
	Answers   map[string]string `json:"answers"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Message is one line of a chat transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
