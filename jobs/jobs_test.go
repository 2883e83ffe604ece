package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	_ "github.com/monok8i/users-api/testing"
)

func TestEnqueueWelcomeEmail(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() {
		require.NoError(t, client.Close())
	}()

	err := client.EnqueueWelcomeEmail(context.Background(), "new@example.com")
	require.NoError(t, err)

	var queued bool
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "asynq:") {
			queued = true
			break
		}
	}
	require.True(t, queued, "expected task data in redis")
}

func TestWelcomeEmailTaskRoundTrip(t *testing.T) {
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{Email: "a@example.com"})
	require.NoError(t, err)
	require.Equal(t, TaskTypeWelcomeEmail, task.Type())

	var payload WelcomeEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "a@example.com", payload.Email)

	require.NoError(t, HandleWelcomeEmailTask(context.Background(), task))
}

func TestWelcomeEmailTaskMalformedPayload(t *testing.T) {
	task := asynq.NewTask(TaskTypeWelcomeEmail, []byte("{not json"))
	err := HandleWelcomeEmailTask(context.Background(), task)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestSessionsPruneTaskHasNoPayload(t *testing.T) {
	task := NewSessionsPruneTask()
	require.Equal(t, TaskTypeSessionsPrune, task.Type())
	require.Empty(t, task.Payload())
}
