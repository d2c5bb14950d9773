package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/log"
	"github.com/teslashibe/cleargaze/pkg/web"
)

var (
	flagPort      int
	flagHost      string
	flagAutoStart bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session-control API and status stream",
		Long: `serve exposes sessions over HTTP:

  POST   /api/sessions        start a session (optional JSON overrides)
  GET    /api/sessions        list running sessions
  GET    /api/sessions/:id    session status
  DELETE /api/sessions/:id    stop a session
  GET    /api/history         past sessions from the journal
  GET    /ws/status           websocket stream of state changes and alerts`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().IntVar(&flagPort, "port", 8080, "HTTP port")
	cmd.Flags().StringVar(&flagHost, "host", "", "listen address (default all interfaces)")
	cmd.Flags().BoolVar(&flagAutoStart, "auto-start", false, "start a session at boot")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	_, s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Init(s.LogLevel())
	logger := log.L()

	port := s.Port()
	if cmd.Flags().Changed("port") {
		port = flagPort
	}
	autoStart := s.AutoStart()
	if cmd.Flags().Changed("auto-start") {
		autoStart = flagAutoStart
	}

	a, opts, err := buildApp(s)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	srv := web.NewServer(web.Config{
		Manager: a.Manager(),
		Status:  a.StatusHub(),
		Journal: a.Journal(),
		Base:    opts,
		Logger:  logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if autoStart {
		id, err := a.Manager().Start(ctx, opts)
		if err != nil {
			logger.Error("auto-start failed", "error", cameraHint(err))
		} else {
			logger.Info("auto-started session", "session", id.String())
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(fmt.Sprintf("%s:%d", flagHost, port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Shutdown()
	}
}
