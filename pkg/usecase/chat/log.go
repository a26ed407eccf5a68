package chat

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/utils/logging"
)

// Log is the append-only conversation log. Storage failures never reach the
// caller: reads degrade to empty history, writes to a no-op, both with a
// diagnostic record. The system stays usable without persistence.
type Log struct {
	repo repository.Repository
}

func NewLog(repo repository.Repository) *Log {
	return &Log{repo: repo}
}

// Append creates and persists a record for one completed exchange. The
// record is returned even when the save failed, so the caller can keep
// rendering the transcript.
func (l *Log) Append(ctx context.Context, id model.SessionID, userMessage, assistantMessage string) *model.Record {
	now := time.Now()
	record := &model.Record{
		ID:               model.NewRecordID(now),
		SessionID:        id,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		CreatedAt:        now,
	}

	if err := l.repo.PutRecord(ctx, record); err != nil {
		logging.From(ctx).Warn("failed to save conversation record", "error", err, "record_id", record.ID)
	}

	return record
}

// History returns the turns of the last limit exchanges of a session in
// chronological order, each record flattened into a user turn followed by an
// assistant turn. The sort is total: timestamp, then record ID.
func (l *Log) History(ctx context.Context, id model.SessionID, limit int) []model.Turn {
	records, err := l.repo.ListRecords(ctx, id)
	if err != nil {
		logging.From(ctx).Warn("failed to load conversation history", "error", err, "session_id", id)
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})

	if limit >= 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	turns := make([]model.Turn, 0, len(records)*2)
	for _, record := range records {
		turns = append(turns, record.Turns()...)
	}
	return turns
}

// Clear removes all records of a session. Other sessions are untouched.
func (l *Log) Clear(ctx context.Context, id model.SessionID) {
	if err := l.repo.ClearRecords(ctx, id); err != nil {
		logging.From(ctx).Warn("failed to clear conversation history", "error", err, "session_id", id)
	}
}
