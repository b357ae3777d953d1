// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chains tracks the blockchains the oracle writes to: their
// configuration, who may sign for them and how finished rounds reach them.
package chains

import (
	"errors"
	"fmt"
	"sort"

	"github.com/luxfi/oracle"
)

var (
	ErrUnknownChain   = errors.New("unknown chain")
	ErrDuplicateChain = errors.New("duplicate chain")
)

// Registry indexes chain configuration by chain id.
type Registry struct {
	chains map[string]oracle.ChainConfig
	ids    []string
}

func NewRegistry(list []oracle.ChainConfig) (*Registry, error) {
	r := &Registry{
		chains: make(map[string]oracle.ChainConfig, len(list)),
		ids:    make([]string, 0, len(list)),
	}
	for _, chain := range list {
		if chain.ID == "" {
			return nil, errors.New("chain has empty id")
		}
		if _, ok := r.chains[chain.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChain, chain.ID)
		}
		if chain.RequiredSignatures < 1 {
			return nil, fmt.Errorf("chain %s requires at least one signature", chain.ID)
		}
		r.chains[chain.ID] = chain
		r.ids = append(r.ids, chain.ID)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Get returns the configuration of chainID
func (r *Registry) Get(chainID string) (oracle.ChainConfig, error) {
	chain, ok := r.chains[chainID]
	if !ok {
		return oracle.ChainConfig{}, fmt.Errorf("%w: %s", ErrUnknownChain, chainID)
	}
	return chain, nil
}

// IDs returns the sorted chain ids.
func (r *Registry) IDs() []string {
	return r.ids
}

// All returns every chain sorted by id.
func (r *Registry) All() []oracle.ChainConfig {
	all := make([]oracle.ChainConfig, 0, len(r.ids))
	for _, id := range r.ids {
		all = append(all, r.chains[id])
	}
	return all
}

// ForProposal returns the known chains targeted by p, sorted by id.
func (r *Registry) ForProposal(p *oracle.RoundProposal) []oracle.ChainConfig {
	targeted := make([]oracle.ChainConfig, 0, len(p.FeedsForChain))
	for _, id := range p.Chains() {
		if chain, ok := r.chains[id]; ok {
			targeted = append(targeted, chain)
		}
	}
	return targeted
}
