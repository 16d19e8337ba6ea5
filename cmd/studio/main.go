// Command studio previews templates of a local rendering project.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/config"
	"github.com/useflyyer/studio/internal/observability"
	"github.com/useflyyer/studio/internal/settings"
	"github.com/useflyyer/studio/internal/snapshot"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds state shared by subcommands after the root pre-run.
type app struct {
	envFile  string
	logLevel string

	// configOptions are appended to the loader options; tests use them to
	// isolate the environment.
	configOptions []config.Option
	newCapturer   func(config.SnapshotConfig, *zap.Logger) (snapshot.Capturer, func())

	cfg    config.Config
	logger *zap.Logger
}

func newApp() *app {
	return &app{
		newCapturer: func(cfg config.SnapshotConfig, logger *zap.Logger) (snapshot.Capturer, func()) {
			chrome := snapshot.NewChrome(snapshot.Options{
				ExecPath: cfg.ChromePath,
				Timeout:  cfg.Timeout,
				Logger:   logger,
			})
			return chrome, chrome.Close
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "studio",
		Short:         "Preview templates at social media sizes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with STUDIO_* overrides")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newURLCmd(a))
	root.AddCommand(newSnapshotCmd(a))
	root.AddCommand(newSettingsCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	opts := append([]config.Option{config.WithEnvFile(a.envFile)}, a.configOptions...)
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = observability.NewWriterLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

func (a *app) fileStore() *settings.FileStore {
	return settings.NewFileStore(a.cfg.Studio.SettingsFile)
}
