// Package overlay sequences the engine calls that turn two clips and two
// captured timestamps into one blended clip.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"overlayd/internal/capture"
	"overlayd/internal/logging"
)

// Runner is the subset of the engine the orchestrator drives.
type Runner interface {
	WriteFile(name string, data []byte) error
	Exec(ctx context.Context, args ...string) error
	ReadFile(name string) ([]byte, error)
}

// Step names one phase of a run.
type Step string

const (
	StepWrite Step = "write"
	StepTrimA Step = "trim_a"
	StepTrimB Step = "trim_b"
	StepBlend Step = "blend"
	StepRead  Step = "read"
)

// Steps lists the phases in execution order.
var Steps = []Step{StepWrite, StepTrimA, StepTrimB, StepBlend, StepRead}

// ErrMissingInput is returned when either clip is empty.
var ErrMissingInput = errors.New("overlay: both clips are required")

// StepError wraps the failure of one step.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("overlay %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Input is everything one run consumes.
type Input struct {
	A, B           []byte
	StartA, StartB capture.Timestamp
}

// Result is the composed clip.
type Result struct {
	Data        []byte
	ContentType string
	Elapsed     time.Duration
}

type Orchestrator struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{cfg: cfg, logger: logging.WithComponent(logger, "overlay")}, nil
}

func (o *Orchestrator) Config() Config { return o.cfg }

// Run executes the workflow. Each step completes before the next starts and
// the first failure aborts the rest. onStep, when set, is called as each
// step begins.
func (o *Orchestrator) Run(ctx context.Context, r Runner, in Input, onStep func(Step)) (Result, error) {
	if len(in.A) == 0 || len(in.B) == 0 {
		return Result{}, ErrMissingInput
	}
	if !in.StartA.Materialized() || !in.StartB.Materialized() {
		return Result{}, capture.ErrNotMaterialized
	}
	start := time.Now()

	var out []byte
	steps := []struct {
		step Step
		fn   func() error
	}{
		{StepWrite, func() error {
			if err := r.WriteFile(InputA, in.A); err != nil {
				return err
			}
			return r.WriteFile(InputB, in.B)
		}},
		{StepTrimA, func() error {
			return r.Exec(ctx, TrimArgs(o.cfg, in.StartA, InputA, IntermediateA)...)
		}},
		{StepTrimB, func() error {
			return r.Exec(ctx, TrimArgs(o.cfg, in.StartB, InputB, IntermediateB)...)
		}},
		{StepBlend, func() error {
			return r.Exec(ctx, BlendArgs(o.cfg, IntermediateA, IntermediateB, Output)...)
		}},
		{StepRead, func() error {
			b, err := r.ReadFile(Output)
			if err != nil {
				return err
			}
			if len(b) == 0 {
				return errors.New("empty output")
			}
			out = b
			return nil
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			runsTotal.WithLabelValues("error", string(s.step)).Inc()
			return Result{}, &StepError{Step: s.step, Err: err}
		}
		if onStep != nil {
			onStep(s.step)
		}
		t0 := time.Now()
		err := s.fn()
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		stepDuration.WithLabelValues(string(s.step), outcome).Observe(time.Since(t0).Seconds())
		if err != nil {
			runsTotal.WithLabelValues("error", string(s.step)).Inc()
			o.logger.Error().Err(err).Str("step", string(s.step)).Msg("overlay step failed")
			return Result{}, &StepError{Step: s.step, Err: err}
		}
		o.logger.Debug().Str("step", string(s.step)).Dur("dur", time.Since(t0)).Msg("overlay step complete")
	}

	runsTotal.WithLabelValues("ok", "").Inc()
	elapsed := time.Since(start)
	o.logger.Info().
		Str("start_a", in.StartA.String()).
		Str("start_b", in.StartB.String()).
		Str("mode", string(o.cfg.Mode)).
		Int("bytes", len(out)).
		Dur("dur", elapsed).
		Msg("overlay complete")
	return Result{Data: out, ContentType: OutputContentType, Elapsed: elapsed}, nil
}
