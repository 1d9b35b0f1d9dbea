// Package history reads the durable conversation log of a session.
package history

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
)

const defaultLimit = 20

// List returns the most recent limit messages of a session in ascending
// sequence order. limit <= 0 falls back to the default.
func List(ctx context.Context, repo repository.Repository, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	if sessionID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "session ID is required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	msgs, err := repo.ListMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V("session", sessionID))
	}

	return msgs, nil
}
