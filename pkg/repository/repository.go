package repository

import (
	"context"

	"github.com/m-mizutani/samcore/pkg/model"
)

// Repository is the persistent key-value storage for the chat core: the
// session identifier, conversation records and the optional user profile.
// Implementations return errors tagged with model.ErrTagStorage; callers in
// the usecase layer decide whether to degrade or propagate.
type Repository interface {
	// GetSessionID returns the stored session identifier, or "" when none
	// has been stored yet.
	GetSessionID(ctx context.Context) (model.SessionID, error)

	// PutSessionID stores the session identifier.
	PutSessionID(ctx context.Context, id model.SessionID) error

	// PutRecord persists a conversation record.
	PutRecord(ctx context.Context, record *model.Record) error

	// ListRecords returns all records of a session in unspecified order.
	ListRecords(ctx context.Context, id model.SessionID) ([]*model.Record, error)

	// ClearRecords removes all records of a session. Records of other
	// sessions are untouched.
	ClearRecords(ctx context.Context, id model.SessionID) error

	// GetProfile returns the stored user profile, or nil when none exists.
	GetProfile(ctx context.Context) (*model.UserProfile, error)

	// PutProfile stores the user profile.
	PutProfile(ctx context.Context, profile *model.UserProfile) error

	// Close releases underlying resources.
	Close() error
}
