package main

import (
	"os"

	"github.com/spf13/cobra"

	"bloomwatch/configs"
	"bloomwatch/pkg/log"
	"bloomwatch/pkg/resource"
)

// @title BloomWatch API
// @version 1.0
// @description Climate, vegetation and bloom prediction API backed by NASA POWER, OpenStreetMap and Gemini.
// @BasePath /bloomwatch
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	defer log.Sync()

	if err := newRootCommand().Execute(); err != nil {
		log.Errorw("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var propertiesPath string
	var logLevel string

	root := &cobra.Command{
		Use:           "bloomwatch",
		Short:         "BloomWatch climate and bloom prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("config") {
				if err := resource.Init(propertiesPath); err != nil {
					return err
				}
			}
			log.SetLevel(logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&propertiesPath, "config", configs.Env.PropertiesPath, "path of the application properties file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", configs.Env.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newServeCommand(), newWorkerCommand(), newMigrateCommand())
	return root
}
