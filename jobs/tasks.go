// Package jobs holds background task definitions and the Asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWelcomeEmail is the task type for post-signup emails.
	TaskTypeWelcomeEmail = "mail:welcome"
	// TaskTypeSessionsPrune is the task type for expired refresh-session cleanup.
	TaskTypeSessionsPrune = "sessions:prune"
)

// WelcomeEmailPayload describes the information required to greet a new user.
type WelcomeEmailPayload struct {
	Email string `json:"email"`
}

// NewWelcomeEmailTask constructs an Asynq task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data), nil
}

// HandleWelcomeEmailTask processes TaskTypeWelcomeEmail tasks.
func HandleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// TODO: deliver via SMTP once the mail relay is provisioned.
	slog.Default().Info("welcome email queued for delivery", slog.String("to", payload.Email))
	return nil
}

// NewSessionsPruneTask constructs the cleanup task. It carries no payload.
func NewSessionsPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionsPrune, nil)
}
