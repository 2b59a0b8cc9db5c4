package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsim/config"
)

var pathCmd = &cobra.Command{
	Use:   "path FROM TO",
	Short: "Print the shortest path between two stations",
	Args:  cobra.ExactArgs(2),
	RunE:  runPath,
}

func init() {
	rootCmd.AddCommand(pathCmd)
}

func runPath(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	net := cfg.Network.Build()
	p := net.ShortestPath(args[0], args[1])
	if len(p) == 0 {
		return fmt.Errorf("no path from %s to %s", args[0], args[1])
	}
	cost, _ := net.PathCost(p)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%d ticks)\n", strings.Join(p, " -> "), cost)
	return err
}
