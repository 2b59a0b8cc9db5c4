package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsim/app"
	"github.com/kilianp07/railsim/config"
	"github.com/kilianp07/railsim/infra/logger"
)

var (
	cfgPath  string
	maxTicks int
	noLoop   bool
)

var rootCmd = &cobra.Command{
	Use:           "railsim",
	Short:         "Rail network reservation scheduler and simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().IntVar(&maxTicks, "max-ticks", -1, "stop after N ticks (overrides simulation.max_ticks)")
	rootCmd.Flags().BoolVar(&noLoop, "no-loop", false, "do not reschedule trains after arrival")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.ExecuteContext(context.Background()) }

// applyRunFlags lets command line flags win over the configuration file.
func applyRunFlags(cfg *config.Config) {
	if maxTicks >= 0 {
		cfg.Simulation.MaxTicks = maxTicks
	}
	if noLoop {
		cfg.Simulation.Loop = false
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunFlags(cfg)
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("cli").Errorf("close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
