package model

import (
	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// UserProfile is the optional personalization data stored alongside the
// session. Both fields may be zero; Name decides presence.
type UserProfile struct {
	Name string `json:"name" yaml:"name"`
	Age  int    `json:"age" yaml:"age"`
}
