package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"overlayd/internal/common/fsutil"
)

var blendFilterRe = regexp.MustCompile(`(?m)^\s*\S+\s+blend\s`)

// Load resolves the binaries and probes the capabilities the overlay
// workflow needs. Probes run concurrently. A failed Load leaves the engine
// unloaded; Load may be called again.
func (e *FFmpeg) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if e.Loaded() {
		return nil
	}
	start := time.Now()

	ffmpegPath, err := exec.LookPath(e.opts.FFmpegBin)
	if err != nil {
		return &LoadError{Probe: "ffmpeg", Err: err}
	}
	ffprobePath, err := exec.LookPath(e.opts.FFprobeBin)
	if err != nil {
		return &LoadError{Probe: "ffprobe", Err: err}
	}

	var version string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := output(gctx, ffmpegPath, "-hide_banner", "-version")
		if err != nil {
			return &LoadError{Probe: "version", Err: err}
		}
		version = firstLine(out)
		if !strings.HasPrefix(version, "ffmpeg version") {
			return &LoadError{Probe: "version", Err: fmt.Errorf("unexpected output %q", version)}
		}
		return nil
	})
	g.Go(func() error {
		out, err := output(gctx, ffmpegPath, "-hide_banner", "-filters")
		if err != nil {
			return &LoadError{Probe: "filters", Err: err}
		}
		if !blendFilterRe.Match(out) {
			return &LoadError{Probe: "filters", Err: errors.New("blend filter not available")}
		}
		return nil
	})
	if codec := strings.TrimSpace(e.opts.Codec); codec != "" {
		g.Go(func() error {
			out, err := output(gctx, ffmpegPath, "-hide_banner", "-encoders")
			if err != nil {
				return &LoadError{Probe: "encoders", Err: err}
			}
			re := regexp.MustCompile(`(?m)^\s*\S+\s+` + regexp.QuoteMeta(codec) + `\s`)
			if !re.Match(out) {
				return &LoadError{Probe: "encoders", Err: fmt.Errorf("encoder %s not available", codec)}
			}
			return nil
		})
	}
	g.Go(func() error {
		if _, err := output(gctx, ffprobePath, "-hide_banner", "-version"); err != nil {
			return &LoadError{Probe: "ffprobe", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.Error().Err(err).Msg("engine load failed")
		return err
	}

	root, own := e.opts.WorkDir, false
	if root == "" {
		root, err = os.MkdirTemp("", "overlayd-engine-*")
		if err != nil {
			return &LoadError{Probe: "workdir", Err: err}
		}
		own = true
	}
	vfs, err := fsutil.EnsureDir(filepath.Join(root, "vfs"))
	if err != nil {
		return &LoadError{Probe: "workdir", Err: err}
	}
	scratch, err := fsutil.EnsureDir(filepath.Join(root, "scratch"))
	if err != nil {
		return &LoadError{Probe: "workdir", Err: err}
	}

	e.mu.Lock()
	e.ffmpegPath, e.ffprobePath = ffmpegPath, ffprobePath
	e.version = version
	e.root, e.ownRoot = root, own
	e.vfsDir, e.scratchDir = vfs, scratch
	e.loaded = true
	e.mu.Unlock()

	e.logger.Info().
		Str("ffmpeg", ffmpegPath).
		Str("version", version).
		Str("workdir", root).
		Dur("dur", time.Since(start)).
		Msg("engine loaded")
	return nil
}

// output runs a short-lived probe command and returns its stdout.
func output(ctx context.Context, bin string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s %s: %w: %s", filepath.Base(bin), strings.Join(args, " "), err, tail(stderr.String(), 512))
	}
	return stdout.Bytes(), nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func tail(s string, n int) string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
