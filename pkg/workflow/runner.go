package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step is one unit of a workflow. A step only runs after every earlier step
// returned nil.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepError is the first failure of a run. Steps after it were not run.
type StepError struct {
	RunID string
	Index int
	Name  string
	Err   error
}

func (stepErr *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", stepErr.Index+1, stepErr.Name, stepErr.Err)
}

func (stepErr *StepError) Unwrap() error {
	return stepErr.Err
}

// Runner executes steps strictly in order and halts on the first error.
type Runner struct {
	runID  string
	logger zerolog.Logger
}

// NewRunner creates a runner with a fresh run ID attached to every log line.
func NewRunner(logger zerolog.Logger) *Runner {
	runID := uuid.NewString()
	return &Runner{
		runID:  runID,
		logger: logger.With().Str("run_id", runID).Logger(),
	}
}

func (r *Runner) RunID() string {
	return r.runID
}

// Logger returns the run-scoped logger.
func (r *Runner) Logger() *zerolog.Logger {
	return &r.logger
}

// Run executes steps in order. Cancellation is checked before each step.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	started := time.Now()
	r.logger.Info().Int("steps", len(steps)).Msg("workflow started")

	for index, step := range steps {
		if err := ctx.Err(); err != nil {
			return r.fail(index, step.Name, err)
		}

		stepLogger := r.logger.With().Int("step", index+1).Str("name", step.Name).Logger()
		stepStarted := time.Now()
		stepLogger.Debug().Msg("step started")

		if err := step.Run(ctx); err != nil {
			return r.fail(index, step.Name, err)
		}

		stepLogger.Info().Dur("elapsed", time.Since(stepStarted)).Msg("step completed")
	}

	r.logger.Info().Dur("elapsed", time.Since(started)).Msg("workflow completed")
	return nil
}

func (r *Runner) fail(index int, name string, err error) error {
	r.logger.Error().Err(err).Int("step", index+1).Str("name", name).Msg("workflow halted")
	return &StepError{RunID: r.runID, Index: index, Name: name, Err: err}
}
