package overlay

import (
	"fmt"
	"strconv"

	"overlayd/internal/capture"
)

// TrimArgs builds the command that cuts a Duration-long, video-only window
// of input starting at start.
func TrimArgs(cfg Config, start capture.Timestamp, input, output string) []string {
	return []string{
		"-ss", start.String(),
		"-i", input,
		"-t", formatSeconds(cfg.Duration),
		"-c:v", cfg.Codec,
		"-an",
		"-crf", strconv.Itoa(cfg.CRF),
		"-threads", "0",
		output,
	}
}

// BlendArgs builds the command compositing two intermediates into output.
func BlendArgs(cfg Config, a, b, output string) []string {
	return []string{
		"-i", a,
		"-i", b,
		"-an",
		"-filter_complex", FilterGraph(cfg),
		output,
	}
}

// FilterGraph returns the blend filter for the configured mode.
func FilterGraph(cfg Config) string {
	return "[0:v][1:v]blend=all_expr='" + BlendExpr(cfg) + "'"
}

// BlendExpr returns the per-pixel expression; A is clip A, B is clip B.
func BlendExpr(cfg Config) string {
	switch cfg.Mode {
	case ModeMix:
		return "A*0.5 + B*0.5"
	case ModeLighten:
		return "max(A,B)"
	default:
		return fmt.Sprintf("if(gt(A,%d), A, B)", cfg.Threshold)
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
