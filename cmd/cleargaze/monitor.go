package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/app"
	"github.com/teslashibe/cleargaze/internal/log"
	"github.com/teslashibe/cleargaze/pkg/alert"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/tui"
)

var flagNoTUI bool

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Monitor distance in the terminal (default command)",
		Args:  cobra.NoArgs,
		RunE:  runMonitor,
	}
	addMonitorFlags(cmd)
	return cmd
}

func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "log state changes instead of drawing the live monitor")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	_, s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	// The live monitor owns the terminal; logs go to a file.
	if flagNoTUI {
		log.Init(s.LogLevel())
	} else {
		path := logFilePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.InitTo(f, s.LogLevel())
	}

	a, opts, err := buildApp(s)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flagNoTUI {
		return monitorHeadless(ctx, a)
	}

	mon, err := a.StartMonitor(ctx)
	if err != nil {
		return cameraHint(err)
	}
	defer mon.Stop()

	p := tea.NewProgram(tui.New(mon, opts.Guidance), tea.WithAltScreen(), tea.WithContext(ctx))
	a.SetVisual(tui.Notifier(p))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func monitorHeadless(ctx context.Context, a *app.App) error {
	a.SetVisual(func(n alert.Notification) {
		fmt.Printf("%s  %-10s %s\n", n.Timestamp.Format("15:04:05"), n.State, n.Message)
	})
	mon, err := a.StartMonitor(ctx)
	if err != nil {
		return cameraHint(err)
	}
	defer mon.Stop()

	st, err := mon.Status()
	if err == nil {
		fmt.Printf("Monitoring with the %s camera (session %s). Ctrl+C to stop.\n", st.Facing, st.ID)
		if !st.Calibrated {
			fmt.Printf("Warning: %v. Run `cleargaze calibrate`.\n", guidance.ErrInvalidCalibration)
		}
	}
	<-ctx.Done()
	return nil
}
