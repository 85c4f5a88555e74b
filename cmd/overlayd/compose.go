package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"overlayd/internal/engine"
	"overlayd/internal/manager"
	"overlayd/internal/overlay"
	"overlayd/internal/shell"
)

type composeOptions struct {
	at    string
	out   string
	mode  string
	noBar bool
}

func newComposeCmd(root *rootOptions) *cobra.Command {
	opts := &composeOptions{}
	cmd := &cobra.Command{
		Use:   "compose <clip-a> <clip-b>",
		Short: "Compose an overlay from two local files without the browser",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.mode != "" {
				cfg.Overlay.Mode = opts.mode
			}
			ovl, err := overlayConfig(cfg.Overlay)
			if err != nil {
				return err
			}
			positions, err := parsePositions(opts.at)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng := engine.New(engine.Options{
				FFmpegBin:  cfg.FFmpegBin,
				FFprobeBin: cfg.FFprobeBin,
				WorkDir:    cfg.WorkDir,
				Codec:      ovl.Codec,
				Logger:     logger,
			})
			defer eng.Close()
			showBar := !opts.noBar && term.IsTerminal(int(os.Stderr.Fd()))
			return runCompose(ctx, eng, ovl, args[0], args[1], positions, opts.out, showBar, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.at, "at", "0,0", "Positions in seconds of clip A and clip B, e.g. 1.2,3.5")
	f.StringVarP(&opts.out, "output", "o", "output.mp4", "Output file")
	f.StringVar(&opts.mode, "mode", "", "Blend mode: spotlight, lighten or mix")
	f.BoolVar(&opts.noBar, "no-progress", false, "Disable the progress bar")
	return cmd
}

func parsePositions(s string) ([]float64, error) {
	parts := splitCSV(s)
	if len(parts) != 2 {
		return nil, fmt.Errorf("--at needs two comma-separated positions, got %q", s)
	}
	out := make([]float64, 0, 2)
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("--at: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// runCompose drives the same manager the server uses: load, select both
// clips, trigger and wait.
func runCompose(ctx context.Context, eng manager.Engine, ovl overlay.Config, pathA, pathB string, positions []float64, out string, showBar bool, logger zerolog.Logger) error {
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Engine:      eng,
		Overlay:     ovl,
		BaseContext: ctx,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	if err := mgr.EnsureEngine(ctx); err != nil {
		return err
	}
	for _, c := range []struct{ slot, path string }{{"a", pathA}, {"b", pathB}} {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return err
		}
		name := filepath.Base(c.path)
		if _, err := mgr.SelectClip(c.slot, name, mime.TypeByExtension(filepath.Ext(name)), data); err != nil {
			return fmt.Errorf("clip %s: %w", c.slot, err)
		}
	}

	if showBar {
		bar := progressbar.NewOptions(len(overlay.Steps),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("composing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		mgr.SetEventPublisher(manager.PublisherFunc(func(e manager.Event) {
			if e.Name != manager.EventRunStep {
				return
			}
			if step, ok := e.Fields["step"].(string); ok {
				bar.Describe(step)
			}
			_ = bar.Add(1)
		}))
		defer bar.Finish()
	}

	if _, err := mgr.Trigger(ctx, positions); err != nil {
		return err
	}
	mgr.Wait()

	st := mgr.Snapshot()
	if st.Run != shell.RunDone || st.Result == nil {
		return fmt.Errorf("compose failed: %s", st.Err)
	}
	h, data, err := mgr.Result(st.Result.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	logger.Info().
		Str("output", out).
		Int("bytes", h.Size).
		Str("a", clipCaptured(st.A)).
		Str("b", clipCaptured(st.B)).
		Msg("overlay written")
	return nil
}

func clipCaptured(c *shell.Clip) string {
	if c == nil {
		return ""
	}
	return c.Captured.String()
}
