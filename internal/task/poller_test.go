package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_Poll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	records, mem := newTestRecords(t)
	poller, err := NewPoller(records)
	require.NoError(t, err)

	require.NoError(t, records.Create(ctx, records.New("running", TypeTranscription, "")))

	require.NoError(t, records.Create(ctx, records.New("done", TypeTranscription, "")))
	require.NoError(t, records.Reporter("done").Complete(ctx, Result{Transcription: "hello"}))

	require.NoError(t, records.Create(ctx, records.New("broken", TypeTranscription, "")))
	require.NoError(t, records.Reporter("broken").Fail(ctx, "quota exceeded"))

	require.NoError(t, records.Create(ctx, records.New("gone", TypeTranscription, "")))
	mem.expire(Key("gone"))

	t.Run("non-terminal", func(t *testing.T) {
		t.Parallel()
		rec, err := poller.Poll(ctx, "running", TypeTranscription)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, rec.Status)
	})

	t.Run("completed polls are idempotent", func(t *testing.T) {
		t.Parallel()
		first, err := poller.Poll(ctx, "done", TypeTranscription)
		require.NoError(t, err)
		second, err := poller.Poll(ctx, "done", TypeTranscription)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, "hello", first.Transcription)
		assert.Equal(t, 100, first.Progress)
	})

	t.Run("failed", func(t *testing.T) {
		t.Parallel()
		rec, err := poller.Poll(ctx, "broken", TypeTranscription)
		failed, ok := IsFailed(err)
		require.True(t, ok)
		assert.Equal(t, "quota exceeded", failed.Message)
		assert.Equal(t, StatusFailed, rec.Status)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, err := poller.Poll(ctx, "missing", TypeTranscription)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		_, err := poller.Poll(ctx, "gone", TypeTranscription)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("other pipeline", func(t *testing.T) {
		t.Parallel()
		_, err := poller.Poll(ctx, "running", TypeSpeech)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestNewPoller_Nil(t *testing.T) {
	t.Parallel()
	_, err := NewPoller(nil)
	assert.ErrorIs(t, err, ErrNilStore)
}
