// Package pipeline wires archival steps together, runs hooks, and handles
// retries for transient per-step failures.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
)

// ErrSkip is a sentinel a Step returns to signal the idempotency gate
// rejected the item (a link file already exists for it). It is not a
// failure: the pipeline stops running further steps and Run returns
// OutcomeSkipped with a nil error.
var ErrSkip = errors.New("pipeline: item already archived")

// ErrIgnore is a sentinel a Step returns to signal the item fell below the
// minimum archivable size. Like ErrSkip, this ends the pipeline without
// being treated as a failure.
var ErrIgnore = errors.New("pipeline: item below minimum size")

// Outcome classifies how a Run terminated.
type Outcome int

const (
	OutcomeStored Outcome = iota
	OutcomeSkipped
	OutcomeIgnored
)

// Pipeline executes a sequence of Steps against one ArchiveItem, with hook
// and retry support. A Pipeline value holds no per-run state and is safe to
// share across worker goroutines; each call to Run operates on its own item.
type Pipeline struct {
	steps      []core.Step
	hooks      []core.Hook
	maxRetries int
	retryDelay time.Duration
}

// New returns an empty Pipeline.
func New() *Pipeline { return &Pipeline{} }

// Use appends steps to the pipeline. Returns the same Pipeline for chaining.
func (p *Pipeline) Use(s ...core.Step) *Pipeline {
	p.steps = append(p.steps, s...)
	return p
}

// AddHook registers an observer.
func (p *Pipeline) AddHook(h core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h)
	return p
}

// WithRetry sets the maximum retry count and delay applied to steps whose
// error is marked retryable (errors.IsRetryable) — transient thumbnail-store
// failures, never per-image decode/EXIF errors.
func (p *Pipeline) WithRetry(maxRetries int, delay time.Duration) *Pipeline {
	p.maxRetries = maxRetries
	p.retryDelay = delay
	return p
}

// Run executes the pipeline against item, mutating it in place as each step
// runs. It returns the terminal Outcome and, for a genuine failure, a
// non-nil error; ErrSkip/ErrIgnore from a step are translated into
// OutcomeSkipped/OutcomeIgnored with a nil error.
func (p *Pipeline) Run(ctx context.Context, item *core.ArchiveItem) (Outcome, error) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return OutcomeStored, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}

		err := p.runStep(ctx, step, item)
		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, ErrSkip):
			return OutcomeSkipped, nil
		case errors.Is(err, ErrIgnore):
			return OutcomeIgnored, nil
		default:
			return OutcomeStored, err
		}
	}
	return OutcomeStored, nil
}

// runStep executes a single step, calling hooks and retrying retryable
// errors. ErrSkip/ErrIgnore are never retried.
func (p *Pipeline) runStep(ctx context.Context, step core.Step, item *core.ArchiveItem) error {
	p.callHooksBefore(ctx, step.Name(), item)

	var (
		elapsed time.Duration
		err     error
	)

	attempts := p.maxRetries + 1
	for i := 0; i < attempts; i++ {
		start := time.Now()
		err = step.Execute(ctx, item)
		elapsed = time.Since(start)

		if err == nil {
			break
		}
		if errors.Is(err, ErrSkip) || errors.Is(err, ErrIgnore) {
			break
		}
		if !apperrors.IsRetryable(err) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			err = apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), ctx.Err())
			goto done
		case <-time.After(p.retryDelay):
		}
	}

done:
	p.callHooksAfter(ctx, step.Name(), item, elapsed, err)
	return err
}

func (p *Pipeline) callHooksBefore(ctx context.Context, name string, item *core.ArchiveItem) {
	for _, h := range p.hooks {
		h.BeforeStep(ctx, name, item)
	}
}

func (p *Pipeline) callHooksAfter(ctx context.Context, name string, item *core.ArchiveItem, d time.Duration, err error) {
	for _, h := range p.hooks {
		h.AfterStep(ctx, name, item, d, err)
	}
}

// Clone returns a shallow copy of the pipeline so a template built once at
// startup can be handed to each worker goroutine.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		steps:      make([]core.Step, len(p.steps)),
		hooks:      make([]core.Hook, len(p.hooks)),
		maxRetries: p.maxRetries,
		retryDelay: p.retryDelay,
	}
	copy(cp.steps, p.steps)
	copy(cp.hooks, p.hooks)
	return cp
}
