package overlay

import (
	"fmt"
	"strings"
)

// Mode selects the per-pixel compositing rule of the blend step.
type Mode string

const (
	// ModeSpotlight keeps A wherever it is brighter than the threshold and
	// shows B elsewhere, modeling an additive spotlight overlay.
	ModeSpotlight Mode = "spotlight"
	// ModeLighten keeps the brighter of A and B per pixel.
	ModeLighten Mode = "lighten"
	// ModeMix is an even linear blend.
	ModeMix Mode = "mix"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSpotlight, ModeLighten, ModeMix:
		return m, nil
	default:
		return "", fmt.Errorf("overlay: unknown blend mode %q", s)
	}
}

// Virtual file names used inside the engine. Every run overwrites them.
const (
	InputA        = "input"
	InputB        = "input2"
	IntermediateA = "output1.webm"
	IntermediateB = "output2.webm"
	Output        = "output.mp4"

	OutputContentType = "video/mp4"
)

// Config holds the composition constants. They are fixed per process.
type Config struct {
	// Duration of each trimmed window in seconds.
	Duration float64
	// Codec of the intermediate clips.
	Codec string
	// CRF quality of the intermediate clips.
	CRF       int
	Mode      Mode
	Threshold int
}

func DefaultConfig() Config {
	return Config{Duration: 2, Codec: "libvpx", CRF: 5, Mode: ModeSpotlight, Threshold: 175}
}

func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("overlay: duration must be positive, got %v", c.Duration)
	}
	if strings.TrimSpace(c.Codec) == "" {
		return fmt.Errorf("overlay: codec is required")
	}
	if c.CRF < 0 || c.CRF > 63 {
		return fmt.Errorf("overlay: crf out of range: %d", c.CRF)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Mode == ModeSpotlight && (c.Threshold < 0 || c.Threshold > 255) {
		return fmt.Errorf("overlay: threshold out of range: %d", c.Threshold)
	}
	return nil
}
