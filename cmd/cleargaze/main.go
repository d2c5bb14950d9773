// Command cleargaze watches the driver's face through the phone or laptop
// camera and warns when it drifts out of the safe viewing distance.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/app"
	"github.com/teslashibe/cleargaze/internal/config"
	"github.com/teslashibe/cleargaze/internal/log"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/face"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

var (
	flagConfig      string
	flagLogLevel    string
	flagDebug       bool
	flagDebugFrames bool
	flagDemo        bool
	flagFacing      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cleargaze",
		Short: "Driver distance monitor",
		Long: `cleargaze estimates how far your face is from the camera and alerts
with a tone, a vibration and an on-screen cue when you are too close, too
far, or when your face leaves the frame.

Use --demo to run with a scripted synthetic face and no camera.`,
		SilenceUsage: true,
		RunE:         runMonitor,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "settings file (default: $XDG_CONFIG_HOME/cleargaze/config.toml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flagDebug, "debug", false, "enable verbose debug logging")
	pf.BoolVar(&flagDebugFrames, "debug-frames", false, "log every frame (very verbose)")
	pf.BoolVar(&flagDemo, "demo", false, "use a synthetic camera and face, no hardware required")
	pf.StringVar(&flagFacing, "facing", "", "camera: front or back")

	addMonitorFlags(rootCmd)
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCalibrateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	return rootCmd
}

// loadSettings reads the settings file and applies env and flag overrides.
func loadSettings(cmd *cobra.Command) (*config.Store, config.Settings, error) {
	store, err := config.Open(flagConfig)
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	s := store.Settings()
	applyStringFlag(cmd, "facing", flagFacing, &s.Camera.Facing)
	applyStringFlag(cmd, "log-level", flagLogLevel, &s.Log.Level)
	if flagDebug && !cmd.Flags().Changed("log-level") {
		level := "debug"
		s.Log.Level = &level
	}
	return store, s, nil
}

// buildApp resolves the session snapshot and constructs the app.
func buildApp(s config.Settings) (*app.App, pipeline.Options, error) {
	opts, err := s.Snapshot()
	if err != nil {
		return nil, opts, err
	}
	audio, err := s.Audio()
	if err != nil {
		return nil, opts, fmt.Errorf("invalid audio config: %w", err)
	}
	a, err := app.New(app.Config{
		Options:     opts,
		Demo:        flagDemo,
		Debug:       flagDebug,
		DebugFrames: flagDebugFrames,
		Audio:       audio,
		ModelPath:   s.ModelPath(),
		RemoteURL:   s.RemoteURL(),
		JournalPath: s.JournalPath(),
		Logger:      log.L(),
	})
	if err != nil {
		return nil, opts, err
	}
	if err := a.Init(); err != nil {
		if errors.Is(err, face.ErrModelNotFound) {
			return nil, opts, fmt.Errorf("%w\nDownload face_detection_yunet_2023mar.onnx from the OpenCV model zoo to %s,\nset [face] model-path, or run with --demo", err, s.ModelPath())
		}
		return nil, opts, err
	}
	return a, opts, nil
}

// cameraHint explains a sensor failure the way the permission screen would.
func cameraHint(err error) error {
	if !errors.Is(err, camera.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w\nThe camera could not be opened. Check that no other app is using it,\nthat this user may access /dev/video*, or try --facing back / --demo", err)
}

func applyStringFlag(cmd *cobra.Command, name, value string, dst **string) {
	if cmd.Flags().Changed(name) {
		v := value
		*dst = &v
	}
}

func logFilePath() string {
	return filepath.Join(config.XDGDataHome(), "cleargaze", "cleargaze.log")
}
