package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mlmc-sim/mlmc-sim/mlmc"
)

var (
	// CLI flags for the pilot run
	scenarioPath string  // Scenario YAML file
	seed         int64   // Master seed for the per-level random streams
	logLevel     string  // Log verbosity level
	maxBudget    float64 // Maximum sampling budget override
	parallelism  int     // Evaluation worker pool size override
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "mlmc-sim",
	Short: "Adaptive multilevel Monte Carlo sampling pilot",
}

// runCmd executes a pilot run using parameters from a scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sampling pilot on the built-in spring-mass benchmark",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatalf("No scenario file provided. Exiting.")
		}
		scenario, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Unable to read scenario: %v", err)
		}

		// CLI flags override the scenario file
		if cmd.Flags().Changed("seed") {
			scenario.Seed = seed
		}
		if cmd.Flags().Changed("max-budget") {
			scenario.MaxBudget = maxBudget
		}
		if cmd.Flags().Changed("parallelism") {
			scenario.Parallelism = parallelism
		}

		cfg, err := scenario.Build()
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		logrus.Infof("Starting pilot with %d levels, budget=%v, seed=%d",
			len(cfg.Levels), cfg.MaxBudget, cfg.Seed)

		pilot, err := mlmc.NewPilot(cfg)
		if err != nil {
			logrus.Fatalf("Unable to build the pilot: %v", err)
		}
		result, err := pilot.Execute(context.Background())
		if err != nil {
			logrus.Fatalf("Pilot run failed: %v", err)
		}

		fmt.Println(result.Report())
		logrus.Info("Pilot run complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Master seed for the random streams")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Float64Var(&maxBudget, "max-budget", 0, "Maximum sampling budget (overrides the scenario)")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 1, "Evaluation worker pool size")

	rootCmd.AddCommand(runCmd)
}
