package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

const tracerName = "github.com/dudoxx/dudoxx-api/internal/task"

// Runner executes tasks on their own goroutines as soon as they are submitted.
// There is no queue, no retry and no ordering between tasks.
type Runner struct {
	logger     *slog.Logger
	tracer     trace.Tracer
	mu         sync.RWMutex
	stopped    bool
	wg         sync.WaitGroup
	errHandler func(task Task, err error)
}

// NewRunner creates a Runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger: logger,
		tracer: otel.Tracer(tracerName),
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error_category", provider.CategoryName(err),
				"error", err)
		},
	}
}

// SetErrorHandler replaces the handler called when a task returns an error or panics.
func (r *Runner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit starts t in the background. The task runs with a context detached
// from ctx's cancellation, so it outlives the request that submitted it,
// but it keeps ctx's values (logger, trace).
func (r *Runner) Submit(ctx context.Context, t Task) error {
	if t == nil || t.ID() == "" {
		return ErrInvalidTask
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrRunnerStopped
	}

	r.wg.Add(1)
	go r.run(context.WithoutCancel(ctx), t)
	return nil
}

// Stop refuses new submissions and waits for running tasks until ctx is done.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("tasks still running at shutdown: %w", ctx.Err())
	}
}

func (r *Runner) run(ctx context.Context, t Task) {
	defer r.wg.Done()

	ctx, span := r.tracer.Start(ctx, "task "+string(t.Type()),
		trace.WithAttributes(
			attribute.String("task.id", t.ID()),
			attribute.String("task.type", string(t.Type())),
		))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, r.logger).With(
		"task_id", t.ID(),
		"task_type", t.Type(),
	)
	ctx = logger.WithLogger(ctx, log)

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("task panicked: %v", p)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			log.Error("task panicked", "panic", p, "stack", string(debug.Stack()))

			if f, ok := t.(Failer); ok {
				if ferr := f.Fail(ctx, err.Error()); ferr != nil {
					log.Error("failed to record task failure after panic", "error", ferr)
				}
			}
			r.errHandler(t, err)
		}
	}()

	start := time.Now()
	log.Debug("task started")

	if err := t.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, provider.CategoryName(err))
		r.errHandler(t, err)
		return
	}

	log.Info("task completed", "duration_ms", time.Since(start).Milliseconds())
}
