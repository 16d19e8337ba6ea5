package main

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/preview"
	"github.com/useflyyer/studio/internal/snapshot"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		flags previewFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture PNG snapshots of every preview mode",
		Long: `Capture {template}-{mode}.png for each active mode with headless Chrome.

Modes come from --mode or the saved settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.resolve(cmd, &flags)
			if err != nil {
				return err
			}
			if s.modes.Empty() {
				return errors.New("no preview mode selected; pass --mode")
			}
			frames, err := preview.Plan(s.input, s.modes)
			if err != nil {
				return err
			}

			logger := a.logger.Named("snapshot").With(zap.String("run_id", ulid.Make().String()))
			logger.Debug("capturing frames", zap.Int("frames", len(frames)), zap.String("dir", out))

			capturer, closeFn := a.newCapturer(a.cfg.Snapshot, logger)
			defer closeFn()

			paths, err := snapshot.Run(cmd.Context(), capturer, frames, out)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err != nil {
				logger.Error("snapshot run failed", zap.Int("written", len(paths)), zap.Error(err))
				return err
			}
			logger.Info("snapshots written", zap.Int("count", len(paths)), zap.String("dir", out))
			return a.commit(s)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	return cmd
}
