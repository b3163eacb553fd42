package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/pkg/export"
)

var planFlags struct {
	from   int64
	to     int64
	format string
	asJSON bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip between two vertices of the configured road graph",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().Int64Var(&planFlags.from, "from", 0, "start vertex")
	planCmd.Flags().Int64Var(&planFlags.to, "to", 0, "goal vertex")
	planCmd.Flags().StringVarP(&planFlags.format, "format", "f", "text", "output format: text, json or csv")
	planCmd.Flags().BoolVar(&planFlags.asJSON, "json", false, "shorthand for --format json")
	_ = planCmd.MarkFlagRequired("from")
	_ = planCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	format := planFlags.format
	if planFlags.asJSON {
		format = "json"
	}
	write, err := planWriter(format)
	if err != nil {
		return err
	}

	ctx, stop := withSignals(cmd)
	defer stop()

	svc, err := loadService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	plan, err := svc.Plan(ctx, graph.VertexID(planFlags.from), graph.VertexID(planFlags.to))
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), plan)
}

func planWriter(format string) (func(io.Writer, *planner.Plan) error, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return printPlan, nil
	case "json":
		return export.WriteJSON, nil
	case "csv":
		return export.WriteCSV, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func printPlan(w io.Writer, p *planner.Plan) error {
	ids := make([]string, 0, len(p.Path)+1)
	for _, v := range p.Vertices() {
		ids = append(ids, fmt.Sprint(v))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "plan %s (%s): %d -> %d\n", p.ID, p.Strategy, p.Start, p.Goal)
	fmt.Fprintf(&b, "route:     %s\n", strings.Join(ids, " "))
	fmt.Fprintf(&b, "energy:    %.3f\n", p.Energy)
	fmt.Fprintf(&b, "battery:   %.3f / %.3f at arrival\n", p.Vehicle.Battery, p.Vehicle.BatteryCapacity)
	fmt.Fprintf(&b, "time:      %s\n", p.Vehicle.TravelTime().Round(time.Second))
	fmt.Fprintf(&b, "expanded:  %d\n", p.Expanded)
	fmt.Fprintf(&b, "recharges: %d\n", len(p.Stops))
	for i, s := range p.Stops {
		fmt.Fprintf(&b, "  %d. station %d: +%.3f (%.3f -> %.3f), %.0f s\n",
			i+1, s.Station, s.Energy, s.BatteryBefore, s.BatteryAfter, s.ChargingSeconds)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
