package main

import (
	"github.com/spf13/cobra"

	"github.com/kestrelml/gantry/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an evaluation described by a config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		serveAddr, _ := cmd.Flags().GetString("serve")
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		jsonLogs, _ := cmd.Flags().GetBool("json")
		logLevel, _ := cmd.Flags().GetString("log-level")

		return cli.ExecuteRun(cli.RunOptions{
			ConfigPath: configPath,
			ServeAddr:  serveAddr,
			JSON:       jsonLogs,
			LogLevel:   logLevel,
			NoBanner:   noBanner,
		})
	},
}

func init() {
	runCmd.Flags().String("config", "eval.yaml", "Path to the evaluation config file")
	runCmd.Flags().String("serve", "", "Serve introspection endpoints on this address (e.g. :2112)")
	runCmd.Flags().Bool("no-banner", false, "Suppress the startup banner")
	rootCmd.AddCommand(runCmd)
}
