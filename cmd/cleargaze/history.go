package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/log"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/journal"
	"github.com/teslashibe/cleargaze/pkg/tui"
)

var (
	flagLimit   int
	flagSession string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past monitoring sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&flagLimit, "limit", 20, "number of sessions to show")
	cmd.Flags().StringVar(&flagSession, "session", "", "show the state changes of one session")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	_, s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Init(s.LogLevel())

	path := s.JournalPath()
	if path == "" {
		return fmt.Errorf("journal is disabled in the settings file")
	}
	store, err := journal.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if flagSession != "" {
		return printSession(ctx, store, flagSession)
	}

	recs, err := store.RecentSessions(ctx, flagLimit)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderHistory(recs, 0))
	return nil
}

func printSession(ctx context.Context, store *journal.Store, id string) error {
	durs, err := store.StateDurations(ctx, id, time.Now())
	if err != nil {
		return err
	}
	trs, err := store.Transitions(ctx, id)
	if err != nil {
		return err
	}

	for _, tr := range trs {
		fmt.Printf("%s  %-9s -> %-9s %5.1f cm\n",
			tr.At.Local().Format("15:04:05.000"), tr.From, tr.To, tr.DistanceCm)
	}

	states := make([]guidance.State, 0, len(durs))
	var total time.Duration
	for st, d := range durs {
		states = append(states, st)
		total += d
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	fmt.Println()
	for _, st := range states {
		pct := 0.0
		if total > 0 {
			pct = float64(durs[st]) / float64(total) * 100
		}
		fmt.Printf("%-9s %10s  %5.1f%%\n", st, durs[st].Round(time.Second), pct)
	}
	return nil
}
