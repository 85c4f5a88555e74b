package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"overlayd/internal/engine"
)

func newProbeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe [clip...]",
		Short: "Check that ffmpeg is usable and print clip durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			eng := engine.New(engine.Options{
				FFmpegBin:  cfg.FFmpegBin,
				FFprobeBin: cfg.FFprobeBin,
				WorkDir:    cfg.WorkDir,
				Codec:      cfg.Overlay.Codec,
				Logger:     logger,
			})
			defer eng.Close()
			if err := eng.Load(cmd.Context()); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, eng.Describe())
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				d, err := eng.Duration(cmd.Context(), data)
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				fmt.Fprintf(w, "%s\t%ss\n", p, strconv.FormatFloat(d, 'f', 3, 64))
			}
			return nil
		},
	}
}
