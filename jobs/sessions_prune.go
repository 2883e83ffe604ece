package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/monok8i/users-api/internal/users"
)

// SessionsPruneJob deletes refresh sessions past their expiry.
type SessionsPruneJob struct {
	repo   users.Repository
	logger *slog.Logger
}

// NewSessionsPruneJob constructs the job.
func NewSessionsPruneJob(repo users.Repository, logger *slog.Logger) *SessionsPruneJob {
	return &SessionsPruneJob{repo: repo, logger: logger}
}

// Handle processes TaskTypeSessionsPrune tasks.
func (j *SessionsPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	deleted, err := j.repo.DeleteExpiredSessions(ctx)
	if err != nil {
		j.logger.Error("prune refresh sessions", slog.Any("error", err))
		return err
	}
	if deleted > 0 {
		j.logger.Info("pruned refresh sessions", slog.Int64("deleted", deleted))
	}
	return nil
}
