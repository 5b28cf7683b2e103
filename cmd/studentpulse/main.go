package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studentpulse/internal/app"
	"studentpulse/internal/config"
	"studentpulse/internal/infrastructure"
	"studentpulse/pkg/contracts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "studentpulse",
		Short: "Student Pulse - student performance analyzer",
		Long: `Student Pulse loads class lists from CSV, Excel or PDF files, cleans them,
summarizes the marks and draws charts, either as a web dashboard or once
from the command line.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (default: config.yaml or configs/config.yaml)")

	loadConfig := func() (*config.Config, error) {
		if configFile != "" {
			return config.LoadFrom(configFile)
		}
		return config.Load()
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	})

	root.AddCommand(newServeCmd(loadConfig))
	root.AddCommand(newProcessCmd(loadConfig))

	return root
}

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer infrastructure.CloseLogFile()

			application, err := app.NewApplication(cfg, logger)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port, overriding the configuration")

	return cmd
}
