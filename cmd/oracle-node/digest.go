// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/oracle"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the chain digests of a proposal",
	Long: `Print, for every configured chain a proposal targets, the digest a
validator signs and the address that signs it on this node.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("proposal")
		if path == "" {
			return fmt.Errorf("--proposal is required")
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var proposal oracle.RoundProposal
		if err := json.Unmarshal(b, &proposal); err != nil {
			return fmt.Errorf("failed to decode proposal: %w", err)
		}
		if err := proposal.Verify(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "proposal %s signed by %s\n", proposal.ID(), cfg.Signer().Address().Hex())
		for _, chain := range cfg.Registry().ForProposal(&proposal) {
			digest, err := oracle.ProposalDigest(&proposal, chain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", chain.ID, digest.Hex())
		}
		return nil
	},
}

func init() {
	digestCmd.Flags().String("proposal", "", "path to a JSON encoded proposal")
}
