// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/oracle"
)

var leaderCmd = &cobra.Command{
	Use:   "leader",
	Short: "Print the leader of a round",
	Long:  `Print the validator leading the round containing the given unix timestamp.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		timestamp, _ := cmd.Flags().GetInt64("timestamp")
		if timestamp == 0 {
			timestamp = time.Now().Unix()
		}

		validators, err := oracle.NewCanonicalValidatorSet(cfg.Validators)
		if err != nil {
			return err
		}
		leader := oracle.SelectLeader(uint64(timestamp), validators.Validators(), uint64(cfg.RoundLength/time.Second))
		fmt.Fprintln(cmd.OutOrStdout(), leader.Hex())
		return nil
	},
}

func init() {
	leaderCmd.Flags().Int64("timestamp", 0, "unix timestamp of the round (default now)")
}
