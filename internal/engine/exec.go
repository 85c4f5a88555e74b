package engine

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// baseArgs precede every command: overwrite outputs in place, never read
// stdin, and report machine-readable progress on stderr.
var baseArgs = []string{"-y", "-hide_banner", "-nostdin", "-nostats", "-progress", "pipe:2"}

const stderrTailLines = 20

// Exec runs one ffmpeg command inside the virtual filesystem. Relative file
// names in args resolve against it. Exec blocks until the command exits.
func (e *FFmpeg) Exec(ctx context.Context, args ...string) error {
	if len(args) == 0 {
		return errors.New("engine: no arguments provided")
	}
	e.mu.RLock()
	loaded, bin, dir := e.loaded, e.ffmpegPath, e.vfsDir
	e.mu.RUnlock()
	if !loaded {
		return ErrNotLoaded
	}
	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()

	full := append(append([]string(nil), baseArgs...), args...)
	e.logger.Debug().Strs("args", full).Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, bin, full...)
	cmd.Dir = dir
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &ExecError{Args: args, Err: err}
	}
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return &ExecError{Args: args, Err: err}
	}

	lines := e.stream(stderr)
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ExecError{Args: args, Err: err, Stderr: strings.Join(lines, "\n")}
	}
	e.logger.Debug().Dur("dur", time.Since(start)).Msg("ffmpeg command completed")
	return nil
}

// stream forwards stderr to subscribers and returns the last log lines.
func (e *FFmpeg) stream(r io.Reader) []string {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var last []string
	var p Progress
	for scanner.Scan() {
		line := scanner.Text()
		if key, val, ok := progressField(line); ok {
			if applyProgress(&p, key, val) {
				snap := p
				e.emit(Message{Kind: KindProgress, Line: snap.String(), Progress: &snap})
				p = Progress{}
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		last = append(last, line)
		if len(last) > stderrTailLines {
			last = last[1:]
		}
		e.emit(Message{Kind: KindLog, Line: line})
	}
	return last
}

var progressKeys = map[string]bool{
	"frame": true, "fps": true, "bitrate": true, "total_size": true,
	"out_time_us": true, "out_time_ms": true, "out_time": true,
	"dup_frames": true, "drop_frames": true, "speed": true, "progress": true,
}

func progressField(line string) (string, string, bool) {
	key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return "", "", false
	}
	if progressKeys[key] || strings.HasPrefix(key, "stream_") {
		return key, strings.TrimSpace(val), true
	}
	return "", "", false
}

// applyProgress folds one key into p and reports whether the block ended.
func applyProgress(p *Progress, key, val string) bool {
	switch key {
	case "frame":
		p.Frame, _ = strconv.Atoi(val)
	case "fps":
		p.FPS, _ = strconv.ParseFloat(val, 64)
	case "out_time":
		p.OutTime = val
	case "speed":
		p.Speed = val
	case "progress":
		p.Done = val == "end"
		return true
	}
	return false
}
