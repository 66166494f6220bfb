package task

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
	"github.com/dudoxx/dudoxx-api/internal/redact"
)

// Upload is a client file saved to local disk for a task to consume.
// The task owns the file and removes it when it finishes.
type Upload struct {
	Path        string
	Filename    string
	ContentType string
}

func (u Upload) remove(ctx context.Context) {
	if u.Path == "" {
		return
	}
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.FromContext(ctx).Warn("failed to remove upload", "error", err)
	}
}

// processor holds what every pipeline shares: its identity and the
// reporter bound to its record.
type processor struct {
	id       string
	typ      Type
	reporter *Reporter
}

func newProcessor(id string, typ Type, records *RecordStore) processor {
	return processor{id: id, typ: typ, reporter: records.Reporter(id)}
}

// ID implements Task.
func (p processor) ID() string { return p.id }

// Type implements Task.
func (p processor) Type() Type { return p.typ }

// Fail implements Failer.
func (p processor) Fail(ctx context.Context, message string) error {
	return p.reporter.Fail(ctx, message)
}

// advance records a stage. The stage is logged at debug level and added
// to the task span as an event.
func (p processor) advance(ctx context.Context, stage string, status Status, progress int) error {
	logger.FromContext(ctx).Debug("task stage", "stage", stage, "status", status, "progress", progress)
	trace.SpanFromContext(ctx).AddEvent(stage, trace.WithAttributes(
		attribute.String("task.status", string(status)),
		attribute.Int("task.progress", progress),
	))
	return p.reporter.Advance(ctx, status, progress)
}

// fail records cause as the terminal failure, prefixed with prefix, and
// returns cause for the runner to log.
func (p processor) fail(ctx context.Context, prefix string, cause error) error {
	message := prefix + redact.Error(cause)
	if err := p.reporter.Fail(ctx, message); err != nil {
		logger.FromContext(ctx).Error("failed to record task failure", "error", err, "cause", redact.Error(cause))
	}
	return cause
}
