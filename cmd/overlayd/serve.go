package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"overlayd/internal/common/fsutil"
	"overlayd/internal/config"
	"overlayd/internal/engine"
	"overlayd/internal/history"
	"overlayd/internal/httpapi"
	"overlayd/internal/library"
	"overlayd/internal/logging"
	"overlayd/internal/manager"
)

type serveOptions struct {
	addr       string
	workDir    string
	libraryDir string
	historyDB  string
	cors       string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the overlay page and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.Addr = opts.addr
			}
			if opts.workDir != "" {
				cfg.WorkDir = opts.workDir
			}
			if opts.libraryDir != "" {
				cfg.LibraryDir = opts.libraryDir
			}
			if opts.historyDB != "" {
				cfg.HistoryDB = opts.historyDB
			}
			if opts.cors != "" {
				cfg.CORS.Enabled = true
				cfg.CORS.Origins = splitCSV(opts.cors)
			}
			return runServe(cfg, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :8080")
	f.StringVar(&opts.workDir, "work-dir", "", "Engine working directory (default: private temp dir)")
	f.StringVar(&opts.libraryDir, "library-dir", "", "Directory of clips selectable without upload")
	f.StringVar(&opts.historyDB, "history-db", "", `SQLite run history path, or "off"`)
	f.StringVar(&opts.cors, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	return cmd
}

func runServe(cfg config.Config, logger zerolog.Logger) error {
	ovl, err := overlayConfig(cfg.Overlay)
	if err != nil {
		return err
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(engine.Options{
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
		WorkDir:    cfg.WorkDir,
		Codec:      ovl.Codec,
		Logger:     logger,
	})
	defer eng.Close()

	var hist manager.Recorder
	if p := strings.TrimSpace(cfg.HistoryDB); p != "" && !strings.EqualFold(p, "off") {
		path, err := fsutil.ExpandHome(p)
		if err != nil {
			return err
		}
		db, err := history.Open(path, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		hist = db
	}

	lib, err := library.New(cfg.LibraryDir)
	if err != nil {
		return err
	}

	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Engine:      eng,
		Overlay:     ovl,
		History:     hist,
		Library:     lib,
		BaseContext: baseCtx,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	mgr.LoadAsync()

	httpapi.SetLogger(logging.WithComponent(logger, "http"))
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetMaxUploadBytes(cfg.MaxUploadMB << 20)
	if cfg.CORS.Enabled {
		httpapi.SetCORSOptions(true, cfg.CORS.Origins,
			[]string{"GET", "POST", "PUT", "OPTIONS"},
			[]string{"Content-Type", "X-File-Name", "Range"})
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("mode", string(ovl.Mode)).Msg("overlayd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-baseCtx.Done():
	}
	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	return mgr.Close()
}
