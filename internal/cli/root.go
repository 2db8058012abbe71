// Package cli implements the medremind command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/gmsas95/medremind/internal/app"
	"github.com/spf13/cobra"
)

var Version = "dev"

type globalFlags struct {
	configPath string
	dataDir    string
}

// NewRootCommand builds the medremind command tree
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "medremind",
		Short:         "Medicine reminders and adherence tracking",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&flags.dataDir, "data", "d", "", "Data directory")

	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(medicinesCmd(flags))
	rootCmd.AddCommand(todayCmd(flags))
	rootCmd.AddCommand(takeCmd(flags))
	rootCmd.AddCommand(snoozeCmd(flags))
	rootCmd.AddCommand(missCmd(flags))
	rootCmd.AddCommand(historyCmd(flags))
	rootCmd.AddCommand(reportCmd(flags))
	rootCmd.AddCommand(exportCmd(flags))
	rootCmd.AddCommand(importCmd(flags))
	rootCmd.AddCommand(tuiCmd(flags))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.Bootstrap(flags.configPath, flags.dataDir, Version)
			if err != nil {
				return err
			}
			defer application.Close()
			return application.RunServer(cmd.Context())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "medremind %s\n", Version)
		},
	}
}

// withApp opens the local store, loads the engine and runs fn against it.
// Pending writes are flushed before the store closes.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(*app.App) error) error {
	application, err := app.Bootstrap(flags.configPath, flags.dataDir, Version)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := application.Start(ctx); err != nil {
		return err
	}
	return fn(application)
}
