package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/httpc"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

var flagAddr string

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sessions of a running `cleargaze serve`",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "http://localhost:8080", "server base URL")
	return cmd
}

func runStatus(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sessions []pipeline.Status
	if err := httpc.GetJSON(ctx, flagAddr+"/api/sessions", &sessions); err != nil {
		return fmt.Errorf("failed to query %s: %w", flagAddr, err)
	}
	if len(sessions) == 0 {
		fmt.Println("No running sessions.")
		return nil
	}
	for _, st := range sessions {
		distance := "--"
		if st.HasEstimate {
			distance = fmt.Sprintf("%.1f cm", st.DistanceCm)
		}
		fmt.Printf("%s  %-5s  %-10s %-9s  up %s  %s\n",
			st.ID, st.Facing, st.State, distance,
			time.Since(st.StartedAt).Round(time.Second), st.Metrics.FormatLatency())
	}
	return nil
}
