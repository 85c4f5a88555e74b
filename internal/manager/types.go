package manager

import (
	"context"

	"overlayd/internal/capture"
	"overlayd/internal/engine"
	"overlayd/internal/history"
	"overlayd/internal/overlay"
)

// Engine is everything the manager needs from the transcoding engine.
// *engine.FFmpeg satisfies it.
type Engine interface {
	Load(ctx context.Context) error
	Loaded() bool
	Version() string
	OnLog(fn func(engine.Message)) func()
	overlay.Runner
	capture.Prober
	capture.FrameGrabber
}

// Recorder persists the run ledger. *history.DB satisfies it.
type Recorder interface {
	Begin(ctx context.Context, id string, startA, startB float64, mode string) error
	Finish(ctx context.Context, id string, o history.Outcome) error
	List(ctx context.Context, limit int) ([]history.Run, error)
}

var (
	_ Engine   = (*engine.FFmpeg)(nil)
	_ Recorder = (*history.DB)(nil)
)
