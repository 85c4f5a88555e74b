// Package shell models the presentation state of the overlay page as a
// value with explicit transitions. Every transition returns a new State and
// leaves the receiver untouched, so callers can hold snapshots without
// copying.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"overlayd/internal/capture"
	"overlayd/internal/resource"
)

var (
	ErrEngineNotReady  = errors.New("shell: engine not ready")
	ErrTriggerDisabled = errors.New("shell: trigger disabled")
	ErrNotRunning      = errors.New("shell: no run in progress")
	ErrInvalidSlot     = errors.New("shell: invalid slot")
)

// Slot identifies one of the two clip inputs.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(s)) {
	case SlotA:
		return SlotA, nil
	case SlotB:
		return SlotB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
}

// Clip is one selected source. It is replaced wholesale on re-selection.
type Clip struct {
	ID          string
	Slot        Slot
	Name        string
	ContentType string
	Data        []byte
	// Captured is unset until a run materializes it.
	Captured capture.Timestamp
}

// Phase is the coarse page state.
type Phase string

const (
	PhaseEngineNotReady Phase = "engine_not_ready"
	PhaseIdle           Phase = "idle"
	PhaseRunning        Phase = "running"
)

// RunState describes the latest run.
type RunState string

const (
	RunIdle       RunState = "idle"
	RunInProgress RunState = "in_progress"
	RunDone       RunState = "done"
	RunError      RunState = "error"
)

// State is the whole page state.
type State struct {
	Phase   Phase
	Run     RunState
	RunID   string
	A, B    *Clip
	Err     string
	Message string
	Result  *resource.Handle
	// EngineErr is set when initialization failed.
	EngineErr string
}

func New() State {
	return State{Phase: PhaseEngineNotReady, Run: RunIdle}
}

// TriggerEnabled reports whether Begin would succeed.
func (s State) TriggerEnabled() bool {
	return s.Phase == PhaseIdle && s.A != nil && s.B != nil
}

func (s State) Clip(slot Slot) *Clip {
	if slot == SlotB {
		return s.B
	}
	return s.A
}

func (s State) EngineLoaded() State {
	if s.Phase == PhaseEngineNotReady {
		s.Phase = PhaseIdle
	}
	s.EngineErr = ""
	return s
}

func (s State) EngineFailed(err error) State {
	s.Phase = PhaseEngineNotReady
	s.EngineErr = err.Error()
	return s
}

// SelectClip stores c in its slot, dropping any previous clip and capture.
func (s State) SelectClip(c Clip) (State, error) {
	if s.Phase == PhaseEngineNotReady {
		return s, ErrEngineNotReady
	}
	c.Captured = capture.Timestamp{}
	switch c.Slot {
	case SlotA:
		s.A = &c
	case SlotB:
		s.B = &c
	default:
		return s, fmt.Errorf("%w: %q", ErrInvalidSlot, c.Slot)
	}
	return s, nil
}

// Begin starts a run. The previous error is cleared; the previous result
// stays on display until a new one replaces it.
func (s State) Begin(runID string) (State, error) {
	if !s.TriggerEnabled() {
		return s, ErrTriggerDisabled
	}
	s.Phase = PhaseRunning
	s.Run = RunInProgress
	s.RunID = runID
	s.Err = ""
	s.Message = ""
	return s, nil
}

// Captured records the materialized timestamps of the running pair. Only
// slots still holding the clips identified by aID and bID are stamped; a
// clip selected after Begin keeps an unset timestamp.
func (s State) Captured(aID, bID string, p capture.Pair) (State, error) {
	if s.Phase != PhaseRunning {
		return s, ErrNotRunning
	}
	if s.A != nil && s.A.ID == aID {
		a := *s.A
		a.Captured = p.A
		s.A = &a
	}
	if s.B != nil && s.B.ID == bID {
		b := *s.B
		b.Captured = p.B
		s.B = &b
	}
	return s, nil
}

func (s State) Succeed(h resource.Handle) (State, error) {
	if s.Phase != PhaseRunning {
		return s, ErrNotRunning
	}
	s.Phase = PhaseIdle
	s.Run = RunDone
	s.Result = &h
	return s, nil
}

// Fail ends the run with err. Result is retained.
func (s State) Fail(err error) (State, error) {
	if s.Phase != PhaseRunning {
		return s, ErrNotRunning
	}
	s.Phase = PhaseIdle
	s.Run = RunError
	s.Err = err.Error()
	return s, nil
}

func (s State) Log(msg string) State {
	s.Message = msg
	return s
}
