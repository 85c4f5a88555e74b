package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"overlayd/internal/config"
	"overlayd/internal/logging"
	"overlayd/internal/overlay"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "overlayd",
		Short:         "Blend two video clips into a short pitching overlay",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a .yaml, .json or .toml config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(
		newServeCmd(opts),
		newComposeCmd(opts),
		newProbeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig merges, lowest precedence first: defaults, the config file,
// OVERLAYD_* environment variables and the global flags. It also installs
// the global logger.
func (o *rootOptions) loadConfig() (config.Config, zerolog.Logger, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, zerolog.Nop(), fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg, err := config.ApplyEnv(cfg, os.Getenv)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	cfg = cfg.WithDefaults()
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, logger, nil
}

// overlayConfig converts the file representation into the orchestrator's.
// Unset fields take the built-in defaults.
func overlayConfig(c config.OverlayConfig) (overlay.Config, error) {
	c = config.Config{Overlay: c}.WithDefaults().Overlay
	mode, err := overlay.ParseMode(c.Mode)
	if err != nil {
		return overlay.Config{}, err
	}
	oc := overlay.Config{
		Duration:  c.DurationSec,
		Codec:     c.Codec,
		CRF:       *c.CRF,
		Mode:      mode,
		Threshold: *c.Threshold,
	}
	return oc, oc.Validate()
}

// splitCSV splits a comma-separated list, trimming spaces and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the overlayd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "overlayd "+version)
		},
	}
}
