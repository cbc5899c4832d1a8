package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelml/gantry/pkg/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the supported metric names",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range metrics.Names() {
			entry, _ := metrics.Get(name)
			kind := "single"
			if entry.Kind == metrics.KindPair {
				kind = "pair"
			}
			fmt.Printf("%-24s %s\n", name, kind)
		}
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
