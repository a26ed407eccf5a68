package chat

import (
	"context"

	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/utils/logging"
)

// SessionID returns the stored session identifier, generating and persisting
// a new one on first run. There is no error path: when storage is
// unavailable the generated identifier is still returned and stays valid for
// the process lifetime, it just will not survive a restart.
func SessionID(ctx context.Context, repo repository.Repository) model.SessionID {
	logger := logging.From(ctx)

	id, err := repo.GetSessionID(ctx)
	if err != nil {
		logger.Warn("failed to read session ID, using ephemeral ID", "error", err)
	}
	if id != "" {
		return id
	}

	id = model.NewSessionID()
	if err := repo.PutSessionID(ctx, id); err != nil {
		logger.Warn("failed to persist session ID, ID is ephemeral", "error", err, "session_id", id)
	}

	return id
}
