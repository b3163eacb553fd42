package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/infra/roadgraph"
)

var genFlags struct {
	roadgraph.GenerateConfig
	out string
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Road graph utilities",
}

var graphGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random connected road network with charging stations",
	RunE:  runGraphGenerate,
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Print vertex, edge and station counts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGraphStats,
}

func init() {
	f := graphGenerateCmd.Flags()
	f.IntVar(&genFlags.Vertices, "vertices", 50, "number of vertices")
	f.IntVar(&genFlags.Degree, "degree", 3, "nearest neighbours linked to every vertex")
	f.IntVar(&genFlags.Stations, "stations", 5, "number of charging stations")
	f.Float64Var(&genFlags.ExtentM, "extent", 20000, "side of the square area in metres")
	f.Uint64Var(&genFlags.Seed, "seed", 1, "random seed")
	f.StringVarP(&genFlags.out, "out", "o", "", "output file (.json, .yaml); stdout JSON when empty")
	graphCmd.AddCommand(graphGenerateCmd, graphStatsCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraphGenerate(cmd *cobra.Command, args []string) error {
	g, err := roadgraph.Generate(genFlags.GenerateConfig)
	if err != nil {
		return err
	}
	if genFlags.out == "" {
		return roadgraph.Write(cmd.OutOrStdout(), g)
	}
	f, err := os.Create(genFlags.out)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(filepath.Ext(genFlags.out), ".")
	if err := roadgraph.Encode(f, format, g); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runGraphStats(cmd *cobra.Command, args []string) error {
	var (
		g   *roadgraph.Graph
		err error
	)
	if len(args) == 1 {
		g, err = roadgraph.Load(args[0], roadgraph.LoadOptions{})
	} else {
		var cfg *config.Config
		if cfg, err = config.Load(cfgPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		g, err = cfg.Graph.Build()
	}
	if err != nil {
		return err
	}
	st := g.Stats()
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "vertices: %d\nedges:    %d\nstations: %d\n", st.Vertices, st.Edges, st.Stations)
	return err
}
