package main

import (
	"github.com/spf13/cobra"

	"github.com/kestrelml/gantry/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the probe-to-meter wiring for a config",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		return cli.ExecuteGraph(configPath, mermaid)
	},
}

func init() {
	graphCmd.Flags().String("config", "eval.yaml", "Path to the evaluation config file")
	graphCmd.Flags().Bool("mermaid", false, "Emit Mermaid flowchart syntax instead of plain text")
	rootCmd.AddCommand(graphCmd)
}
