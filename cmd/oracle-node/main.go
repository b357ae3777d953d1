// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/config"
)

var buildDate = "unknown"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oracle-node",
	Short: "Price oracle validator node",
	Long: `oracle-node runs one validator of a price oracle network.

Each round one validator leads: it proposes feed values, collects signatures
from its peers and hands the agreed values to every target chain.`,
	Version:       fmt.Sprintf("%s (built %s)", oracle.Version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(config.BuildFlagSet())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(leaderCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	return config.NewConfig(v)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the node version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), oracle.Version)
	},
}
