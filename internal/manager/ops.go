package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"overlayd/internal/capture"
	"overlayd/internal/engine"
	"overlayd/internal/history"
	"overlayd/internal/overlay"
	"overlayd/internal/resource"
	"overlayd/internal/shell"
)

// Trigger starts an overlay run with the paused positions of clip A and
// clip B and returns its id. The run proceeds in the background; callers
// poll Status or call Wait. A disabled trigger is rejected without touching
// the engine.
func (m *Manager) Trigger(ctx context.Context, positions []float64) (string, error) {
	if len(positions) != 2 {
		return "", badRequestError{msg: fmt.Sprintf("expected 2 positions, got %d", len(positions))}
	}
	for i, p := range positions {
		if err := capture.ValidatePosition(p); err != nil {
			return "", badRequestError{msg: fmt.Sprintf("position %d: %v", i, err)}
		}
	}

	runID := uuid.NewString()
	m.mu.Lock()
	cur := m.state
	if cur.Phase == shell.PhaseEngineNotReady {
		m.mu.Unlock()
		return "", ErrEngineNotReady(cur.EngineErr)
	}
	next, err := cur.Begin(runID)
	if err != nil {
		m.mu.Unlock()
		reason := "clip missing"
		if cur.Phase == shell.PhaseRunning {
			reason = "run in progress"
		}
		m.logger.Debug().Str("reason", reason).Msg("trigger rejected")
		return "", triggerDisabledError{reason: reason}
	}
	m.state = next
	a, b := *next.A, *next.B
	m.runs.Add(1)
	m.mu.Unlock()

	m.publish(Event{Name: EventTriggerDisabled, RunID: runID})
	m.publish(Event{Name: EventRunStarted, RunID: runID, Fields: map[string]any{"a": positions[0], "b": positions[1]}})
	go m.run(runID, a, b, positions[0], positions[1])
	return runID, nil
}

func (m *Manager) run(runID string, a, b shell.Clip, posA, posB float64) {
	defer m.runs.Done()
	ctx := m.baseCtx
	logger := m.logger.With().Str("run_id", runID).Logger()
	logger.Info().Float64("a", posA).Float64("b", posB).Msg("run started")

	unsubscribe := m.eng.OnLog(func(msg engine.Message) {
		line := msg.Line
		if msg.Kind == engine.KindProgress && msg.Progress != nil {
			line = msg.Progress.String()
		}
		m.update(func(s shell.State) shell.State { return s.Log(line) })
	})
	defer unsubscribe()

	pair, err := m.capt.Capture(ctx,
		capture.Source{Data: a.Data, Position: posA},
		capture.Source{Data: b.Data, Position: posB})
	if err == nil {
		posA, posB = pair.A.Seconds(), pair.B.Seconds()
		m.mu.Lock()
		if next, cerr := m.state.Captured(a.ID, b.ID, pair); cerr == nil {
			m.state = next
		}
		m.mu.Unlock()
	}
	if m.hist != nil {
		if herr := m.hist.Begin(context.WithoutCancel(ctx), runID, posA, posB, string(m.OverlayConfig().Mode)); herr != nil {
			logger.Warn().Err(herr).Msg("history begin failed")
		}
	}

	var res overlay.Result
	if err == nil {
		res, err = m.orch.Run(ctx, m.eng, overlay.Input{A: a.Data, B: b.Data, StartA: pair.A, StartB: pair.B}, func(s overlay.Step) {
			m.update(func(st shell.State) shell.State { return st.Log("step: " + string(s)) })
			m.publish(Event{Name: EventRunStep, RunID: runID, Fields: map[string]any{"step": string(s)}})
		})
	}
	m.finish(ctx, runID, res, err)
}

// finish applies the outcome and re-enables the trigger. It runs exactly
// once per started run.
func (m *Manager) finish(ctx context.Context, runID string, res overlay.Result, runErr error) {
	var h resource.Handle
	if runErr == nil {
		h = m.results.Create(res.Data, res.ContentType)
	}

	m.mu.Lock()
	var (
		next shell.State
		err  error
	)
	if runErr == nil {
		next, err = m.state.Succeed(h)
	} else {
		next, err = m.state.Fail(runErr)
	}
	if err == nil {
		m.state = next
	}
	m.mu.Unlock()
	if err != nil {
		m.logger.Error().Err(err).Str("run_id", runID).Msg("run finished in unexpected state")
	}

	outcome := history.Outcome{Err: runErr}
	if runErr != nil {
		fields := map[string]any{"error": runErr.Error()}
		var se *overlay.StepError
		if errors.As(runErr, &se) {
			fields["step"] = string(se.Step)
		}
		m.logger.Error().Err(runErr).Str("run_id", runID).Msg("run failed")
		m.publish(Event{Name: EventRunFailed, RunID: runID, Fields: fields})
	} else {
		outcome.ResultID, outcome.ResultSize = h.ID, h.Size
		m.logger.Info().Str("run_id", runID).Str("result", h.ID).Int("bytes", h.Size).Dur("dur", res.Elapsed).Msg("run succeeded")
		m.publish(Event{Name: EventRunSucceeded, RunID: runID, Fields: map[string]any{"result_id": h.ID, "bytes": h.Size, "elapsed": res.Elapsed.Round(time.Millisecond).String()}})
	}
	m.publish(Event{Name: EventTriggerEnabled, RunID: runID})

	if m.hist != nil {
		if err := m.hist.Finish(context.WithoutCancel(ctx), runID, outcome); err != nil {
			m.logger.Warn().Err(err).Str("run_id", runID).Msg("history finish failed")
		}
	}
}
