package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStatus_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusProcessing, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusVectorizing, false},
		{StatusIngesting, StatusVectorizing, true},
		{StatusIngesting, StatusIngestCompleted, true},
		{StatusIngesting, StatusCompleted, false},
		{StatusVectorizing, StatusIngesting, false},
		{StatusVectorizing, StatusIngestFailed, true},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
		{StatusIngestCompleted, StatusIngestFailed, false},
		{StatusIngestFailed, StatusVectorizing, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestStatus_Classification(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusCompleted, StatusFailed, StatusIngestCompleted, StatusIngestFailed} {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []Status{StatusProcessing, StatusIngesting, StatusVectorizing} {
		assert.False(t, s.IsTerminal(), s)
		assert.False(t, s.IsFailure(), s)
		assert.True(t, s.Valid(), s)
	}
	assert.True(t, StatusFailed.IsFailure())
	assert.True(t, StatusIngestFailed.IsFailure())
	assert.False(t, StatusCompleted.IsFailure())
	assert.False(t, Status("pending").Valid())
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	rec := NewRecord("t1", TypeIngestion, "ctx-1", testNow)
	assert.Equal(t, StatusIngesting, rec.Status)
	assert.Equal(t, 0, rec.Progress)
	assert.Equal(t, "ctx-1", rec.ContextID)
	assert.Zero(t, rec.Result)

	rec = NewRecord("t2", TypeSpeech, "", testNow)
	assert.Equal(t, StatusProcessing, rec.Status)
}

func TestRecord_Advance(t *testing.T) {
	t.Parallel()

	t.Run("progress update", func(t *testing.T) {
		t.Parallel()
		rec := NewRecord("t1", TypeTranscription, "", testNow)
		require.NoError(t, rec.Advance(StatusProcessing, 50, testNow.Add(time.Second)))
		assert.Equal(t, 50, rec.Progress)
		assert.Equal(t, testNow.Add(time.Second), rec.UpdatedAt)
	})

	t.Run("regression rejected", func(t *testing.T) {
		t.Parallel()
		rec := NewRecord("t1", TypeIngestion, "", testNow)
		require.NoError(t, rec.Advance(StatusVectorizing, 50, testNow))
		err := rec.Advance(StatusVectorizing, 40, testNow)
		assert.ErrorIs(t, err, ErrProgressRegression)
		assert.Equal(t, 50, rec.Progress)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()
		rec := NewRecord("t1", TypeTranscription, "", testNow)
		assert.ErrorIs(t, rec.Advance(StatusProcessing, 101, testNow), ErrInvalidProgress)
		assert.ErrorIs(t, rec.Advance(StatusProcessing, -1, testNow), ErrInvalidProgress)
	})

	t.Run("terminal target rejected", func(t *testing.T) {
		t.Parallel()
		rec := NewRecord("t1", TypeTranscription, "", testNow)
		assert.ErrorIs(t, rec.Advance(StatusCompleted, 100, testNow), ErrInvalidTransition)
	})

	t.Run("cross family rejected", func(t *testing.T) {
		t.Parallel()
		rec := NewRecord("t1", TypeSpeech, "", testNow)
		assert.ErrorIs(t, rec.Advance(StatusVectorizing, 50, testNow), ErrInvalidTransition)
	})
}

func TestRecord_Complete(t *testing.T) {
	t.Parallel()

	rec := NewRecord("t1", TypeIngestion, "ctx", testNow)
	chunks := 3
	require.NoError(t, rec.Complete(Result{DocumentID: "doc", Chunks: &chunks}, testNow))

	assert.Equal(t, StatusIngestCompleted, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	require.True(t, rec.Succeeded())
	assert.Equal(t, 3, *rec.Chunks)

	assert.ErrorIs(t, rec.Fail("late failure", testNow), ErrTerminalState)
	assert.ErrorIs(t, rec.Advance(StatusVectorizing, 100, testNow), ErrTerminalState)
	assert.ErrorIs(t, rec.Complete(Result{}, testNow), ErrTerminalState)
	assert.Equal(t, StatusIngestCompleted, rec.Status)
}

func TestRecord_Fail(t *testing.T) {
	t.Parallel()

	rec := NewRecord("t1", TypeTranscription, "", testNow)
	require.NoError(t, rec.Advance(StatusProcessing, 50, testNow))

	assert.ErrorIs(t, rec.Fail("", testNow), ErrEmptyFailure)
	require.NoError(t, rec.Fail("provider down", testNow))

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "provider down", rec.Error)
	assert.Equal(t, 50, rec.Progress)
	assert.Zero(t, rec.Result)
	assert.ErrorIs(t, rec.Complete(Result{Transcription: "x"}, testNow), ErrTerminalState)
}
