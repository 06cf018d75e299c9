package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/config"
	"github.com/fieldline-io/plansync/internal/logging"
)

var (
	// Flags shared by every subcommand.
	envFile     string
	dryRun      bool
	fullRefresh bool

	// Run state initialized by the persistent pre-run.
	cfg   config.Config
	log   *logging.Logger
	runID string
)

var rootCmd = &cobra.Command{
	Use:   "plansync",
	Short: "plansync moves tracker records between source, store, and dashboard",
	Long: `plansync is a set of batch pipeline commands. Each run independently
fetches one entity type from the tabular source or a workbook, normalizes and
validates it, and loads the relational store or writes the dashboard payload.
Runs are idempotent and safe to repeat.`,
	SilenceUsage:      true,
	PersistentPreRunE: initRun,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute and log intended changes without writing")
	rootCmd.PersistentFlags().BoolVar(&fullRefresh, "full-refresh", false, "clear the run's own seed scope before reimporting")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(milestonesCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(exportCmd)
}

func initRun(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		return err
	}
	log, err = logging.New(cfg.LogMode)
	if err != nil {
		return err
	}
	runID = uuid.Must(uuid.NewV7()).String()
	log = log.With("run_id", runID, "command", cmd.Name())
	return nil
}
