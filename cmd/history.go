package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/infra/history"
)

var historyFlags struct {
	db      string
	vehicle string
	outcome string
	since   time.Duration
	limit   int
	summary bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List planning runs recorded by the sqlite metrics sink",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.db, "db", "", "history database; defaults to the sqlite sink path of the configuration")
	f.StringVar(&historyFlags.vehicle, "vehicle", "", "only runs of this vehicle")
	f.StringVar(&historyFlags.outcome, "outcome", "", "only runs with this outcome (ok or a failure kind)")
	f.DurationVar(&historyFlags.since, "since", 0, "only runs newer than this duration")
	f.IntVar(&historyFlags.limit, "limit", 20, "maximum number of runs listed")
	f.BoolVar(&historyFlags.summary, "summary", false, "aggregate the runs per vehicle")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyFlags.db
	if path == "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = sqliteSinkPath(cfg)
	}
	if path == "" {
		return errors.New("no history database: pass --db or configure a sqlite metrics sink")
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := history.Filter{VehicleID: historyFlags.vehicle, Outcome: historyFlags.outcome, Limit: historyFlags.limit}
	if historyFlags.since > 0 {
		filter.Since = time.Now().Add(-historyFlags.since)
	}
	if historyFlags.summary {
		sums, err := store.Summaries(filter)
		if err != nil {
			return err
		}
		return printSummaries(cmd.OutOrStdout(), sums)
	}
	plans, err := store.Plans(filter)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPLAN\tVEHICLE\tSTRATEGY\tTRIP\tOUTCOME\tRECHARGES\tENERGY")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d->%d\t%s\t%d\t%.3f\n",
			p.Time.Format(time.RFC3339), p.PlanID, p.VehicleID, p.Strategy, p.Start, p.Goal, p.Outcome, p.Recharges, p.Energy)
	}
	return tw.Flush()
}

func printSummaries(w io.Writer, sums []history.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tPLANS\tFAILURES\tRECHARGES\tENERGY")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\n", s.VehicleID, s.Plans, s.Failures, s.Recharges, s.Energy)
	}
	return tw.Flush()
}

// sqliteSinkPath returns the path of the first configured sqlite sink.
func sqliteSinkPath(cfg *config.Config) string {
	for _, s := range cfg.Metrics.Sinks {
		if s.Type != "sqlite" {
			continue
		}
		if p, ok := s.Conf["path"].(string); ok {
			return p
		}
	}
	return ""
}
