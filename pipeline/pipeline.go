// Package pipeline runs validation over many documents at once. Each
// document gets its own adapter, so the runs are independent and safe to
// parallelize; per-document mutation stays caller-serialized as always.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/a11ykit/pdfa11y/observability"
	"github.com/a11ykit/pdfa11y/structure"
	"github.com/a11ykit/pdfa11y/validate"
)

// Outcome is the result of validating one file. Err is set when the file
// could not be opened; the batch keeps going either way.
type Outcome struct {
	Path   string
	Result *validate.Result
	Err    error
}

// Runner validates batches of files.
type Runner struct {
	validator   *validate.Validator
	log         observability.Logger
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency caps the number of documents processed at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger routes progress diagnostics to log.
func WithLogger(log observability.Logger) Option {
	return func(r *Runner) { r.log = log }
}

const defaultConcurrency = 4

// NewRunner builds a Runner around validator.
func NewRunner(validator *validate.Validator, opts ...Option) *Runner {
	r := &Runner{
		validator:   validator,
		log:         observability.NopLogger{},
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Batch opens and validates every path at the target level. Outcomes are
// returned in input order. A file that fails to open is reported in its
// Outcome; only ctx cancellation aborts the batch.
func (r *Runner) Batch(ctx context.Context, paths []string, target validate.Level) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.one(path, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *Runner) one(path string, target validate.Level) Outcome {
	a, err := structure.OpenFile(path, structure.WithLogger(r.log))
	if err != nil {
		r.log.Warn("skipping unopenable file",
			observability.String("path", path), observability.Error("error", err))
		return Outcome{Path: path, Err: err}
	}
	defer a.Close()

	result := r.validator.Validate(a.Document(), target)
	r.log.Info("validated",
		observability.String("path", path),
		observability.Float64("score", result.Score),
		observability.Int("errors", result.Summary.Errors))
	return Outcome{Path: path, Result: result}
}
