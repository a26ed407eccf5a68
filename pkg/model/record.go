package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RecordID string

// NewRecordID generates a record ID that sorts by creation time but stays
// unique when two records are created within the same millisecond. The
// millisecond prefix keeps lexicographic order aligned with time order; the
// random suffix breaks ties.
func NewRecordID(now time.Time) RecordID {
	return RecordID(fmt.Sprintf("%013d-%s", now.UnixMilli(), uuid.New().String()[:8]))
}

// Record is one completed user/assistant exchange. Immutable once created;
// removed only by clearing the whole session.
type Record struct {
	ID               RecordID  `json:"id"`
	SessionID        SessionID `json:"session_id"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"ai_response"`
	CreatedAt        time.Time `json:"timestamp"`
}

// Turns flattens the record into model-input order: the user turn followed by
// the assistant turn.
func (x *Record) Turns() []Turn {
	return []Turn{
		{Role: RoleUser, Content: x.UserMessage},
		{Role: RoleAssistant, Content: x.AssistantMessage},
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a transient view of one side of an exchange; it is derived from
// records and never persisted itself.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
