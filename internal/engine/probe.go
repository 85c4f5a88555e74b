package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Duration reports the container duration of data in seconds via ffprobe.
// It uses a scratch file outside the virtual filesystem and does not take
// the single-flight slot.
func (e *FFmpeg) Duration(ctx context.Context, data []byte) (float64, error) {
	e.mu.RLock()
	loaded, bin, scratch := e.loaded, e.ffprobePath, e.scratchDir
	e.mu.RUnlock()
	if !loaded {
		return 0, ErrNotLoaded
	}
	path, cleanup, err := writeScratch(scratch, "probe-*", data)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	out, err := output(ctx, bin, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, err
	}
	s := firstLine(out)
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("engine probe: parse duration %q: %w", s, err)
	}
	return d, nil
}

// Frame extracts a single PNG frame of data at the given position.
func (e *FFmpeg) Frame(ctx context.Context, data []byte, at float64) ([]byte, error) {
	e.mu.RLock()
	loaded, bin, scratch := e.loaded, e.ffmpegPath, e.scratchDir
	e.mu.RUnlock()
	if !loaded {
		return nil, ErrNotLoaded
	}
	path, cleanup, err := writeScratch(scratch, "frame-*", data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-hide_banner", "-nostdin", "-loglevel", "error",
		"-ss", strconv.FormatFloat(at, 'f', -1, 64), "-i", path,
		"-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ExecError{Args: cmd.Args[1:], Err: err, Stderr: tail(stderr.String(), 1024)}
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("engine frame: no output at %.3fs", at)
	}
	return stdout.Bytes(), nil
}

func writeScratch(dir, pattern string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("engine scratch: %w", err)
	}
	name := f.Name()
	cleanup := func() { _ = os.Remove(name) }
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("engine scratch: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("engine scratch: %w", err)
	}
	return name, cleanup, nil
}

// Describe returns a short capability summary for CLI output.
func (e *FFmpeg) Describe() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.loaded {
		return "engine not loaded"
	}
	return strings.Join([]string{e.version, "ffmpeg=" + e.ffmpegPath, "ffprobe=" + e.ffprobePath}, "\n")
}
