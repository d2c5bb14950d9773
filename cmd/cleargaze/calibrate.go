package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/config"
	"github.com/teslashibe/cleargaze/internal/log"
)

var (
	flagDistanceCm float64
	flagFrames     int
	flagTimeout    time.Duration
	flagSave       bool
)

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the camera focal length from a face at a known distance",
		Long: `Hold your face still at --distance-cm from the camera (measure to the
bridge of the nose) while cleargaze samples your eye spacing. The derived
focal length makes distance estimates accurate for this camera.`,
		Args: cobra.NoArgs,
		RunE: runCalibrate,
	}
	cmd.Flags().Float64Var(&flagDistanceCm, "distance-cm", 30, "distance between face and camera in cm")
	cmd.Flags().IntVar(&flagFrames, "frames", 30, "face observations to collect")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 15*time.Second, "give up after this long")
	cmd.Flags().BoolVar(&flagSave, "save", false, "write the result to the settings file")
	return cmd
}

func runCalibrate(cmd *cobra.Command, _ []string) error {
	store, s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Init(s.LogLevel())

	// Journal stays closed: calibration is not a session.
	off := true
	s.Journal.Disabled = &off
	a, _, err := buildApp(s)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Hold still at %.0f cm from the camera...\n", flagDistanceCm)
	res, err := a.Calibrate(ctx, flagDistanceCm, flagFrames, flagTimeout)
	if err != nil {
		return cameraHint(err)
	}

	fmt.Printf("Eye spacing: %.1f px (median of %d faces in %d frames)\n", res.MedianIODPx, res.Observations, res.Frames)
	fmt.Printf("Focal length: %.1f px\n", res.FocalLengthPx)

	if !flagSave {
		fmt.Printf("\nAdd to %s:\n\n[calibration]\nfocal-length-px = %.1f\n", store.Path(), res.FocalLengthPx)
		return nil
	}

	// Re-read the file so env overrides are not persisted.
	file, err := config.Load(store.Path())
	if err != nil {
		return err
	}
	file.Calibration.FocalLengthPx = &res.FocalLengthPx
	if err := config.Save(store.Path(), file); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Saved to %s\n", store.Path())
	return nil
}
