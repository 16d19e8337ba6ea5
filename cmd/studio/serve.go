package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/help"
	"github.com/useflyyer/studio/internal/httpserver"
	"github.com/useflyyer/studio/internal/httpserver/ui"
	"github.com/useflyyer/studio/internal/observability"
	"github.com/useflyyer/studio/internal/settings"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the studio web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			logger, err := observability.NewLogger(a.cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			a.logger = logger

			srv, err := a.newServer()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), srv, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides STUDIO_HTTP_ADDR)")
	return cmd
}

func (a *app) newServer() (*http.Server, error) {
	cookies, err := settings.NewCookieStore(settings.CookieConfig{
		HashKey:  a.cfg.Cookie.HashKey,
		BlockKey: a.cfg.Cookie.BlockKey,
		Secure:   a.cfg.Cookie.Secure,
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.Cookie.HashKey == nil {
		a.logger.Warn("STUDIO_COOKIE_HASH_KEY not set; saved settings last until restart")
	}
	panel, err := help.Load(a.cfg.Studio.HelpFile)
	if err != nil {
		return nil, err
	}
	return httpserver.New(httpserver.Config{
		Address:      a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
		Logger:       a.logger,
		Settings:     cookies,
		Help:         panel,
		Defaults: ui.Defaults{
			Host:     a.cfg.Studio.DefaultHost,
			Port:     a.cfg.Studio.DefaultPort,
			Template: a.cfg.Studio.DefaultTemplate,
		},
		SecureCSRF: a.cfg.Cookie.Secure,
	})
}

func serve(parent context.Context, srv *http.Server, logger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("studio listening", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("studio stopped")
	return nil
}
