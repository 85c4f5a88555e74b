// Package capture turns the scrub position reported by a preview player into
// a timestamp that is guaranteed to be materialized before the overlay
// workflow uses it.
//
// A freshly loaded browser video element reports a position of zero until it
// has played at least once, so the page plays and immediately pauses each
// (muted) preview before reading currentTime. The controller then validates
// and clamps the reported position against the probed duration of the clip.
package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"overlayd/internal/logging"
)

var (
	ErrClipMissing     = errors.New("capture: clip missing")
	ErrInvalidPosition = errors.New("capture: invalid position")
	ErrNotMaterialized = errors.New("capture: timestamp not materialized")
)

// Timestamp is a playback position in seconds. The zero value is unset.
type Timestamp struct {
	seconds      float64
	materialized bool
}

func (t Timestamp) Seconds() float64   { return t.seconds }
func (t Timestamp) Materialized() bool { return t.materialized }

// String formats the position the way the engine command line expects it.
func (t Timestamp) String() string {
	return strconv.FormatFloat(t.seconds, 'f', -1, 64)
}

// Prober reports the duration of a media blob in seconds.
type Prober interface {
	Duration(ctx context.Context, data []byte) (float64, error)
}

// Source is one clip together with the position its player reported.
type Source struct {
	Data     []byte
	Position float64
}

// Pair holds the timestamps for clip A and clip B.
type Pair struct {
	A, B Timestamp
}

// Controller materializes timestamps. A nil prober skips clamping.
type Controller struct {
	prober Prober
	logger zerolog.Logger
}

func NewController(p Prober, logger zerolog.Logger) *Controller {
	return &Controller{prober: p, logger: logging.WithComponent(logger, "capture")}
}

// ValidatePosition rejects positions no player can report.
func ValidatePosition(pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) || pos < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, pos)
	}
	return nil
}

// Materialize returns the timestamp for src. The result equals the reported
// position whenever it lies within the clip.
func (c *Controller) Materialize(ctx context.Context, src Source) (Timestamp, error) {
	if len(src.Data) == 0 {
		return Timestamp{}, ErrClipMissing
	}
	if err := ValidatePosition(src.Position); err != nil {
		return Timestamp{}, err
	}
	pos := src.Position
	if c.prober != nil {
		d, err := c.prober.Duration(ctx, src.Data)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Timestamp{}, ctx.Err()
			}
			c.logger.Warn().Err(err).Float64("position", pos).Msg("duration probe failed; using reported position")
		case d > 0 && pos > d:
			c.logger.Debug().Float64("position", pos).Float64("duration", d).Msg("clamping position to duration")
			pos = d
		}
	}
	return Timestamp{seconds: pos, materialized: true}, nil
}

// Capture materializes both sources. Either clip missing fails the pair.
func (c *Controller) Capture(ctx context.Context, a, b Source) (Pair, error) {
	if len(a.Data) == 0 || len(b.Data) == 0 {
		return Pair{}, ErrClipMissing
	}
	ta, err := c.Materialize(ctx, a)
	if err != nil {
		return Pair{}, fmt.Errorf("clip a: %w", err)
	}
	tb, err := c.Materialize(ctx, b)
	if err != nil {
		return Pair{}, fmt.Errorf("clip b: %w", err)
	}
	return Pair{A: ta, B: tb}, nil
}
