// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chains

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"

	"github.com/luxfi/oracle/cache"
)

var (
	_ MembershipProvider = (*StaticMembership)(nil)
	_ MembershipProvider = (*CachedMembership)(nil)
)

// MembershipProvider returns the validators registered on a chain.
type MembershipProvider interface {
	Members(ctx context.Context, chainID string) (set.Set[common.Address], error)
}

// StaticMembership serves the membership listed in the chain configuration.
type StaticMembership struct {
	registry *Registry
}

func NewStaticMembership(registry *Registry) *StaticMembership {
	return &StaticMembership{registry: registry}
}

func (s *StaticMembership) Members(_ context.Context, chainID string) (set.Set[common.Address], error) {
	chain, err := s.registry.Get(chainID)
	if err != nil {
		return nil, err
	}
	return set.Of(chain.Validators...), nil
}

// CachedMembership caches another provider's answers for a TTL.
type CachedMembership struct {
	provider MembershipProvider
	cache    *cache.TTLCache[string, set.Set[common.Address]]
}

func NewCachedMembership(provider MembershipProvider, ttl time.Duration) *CachedMembership {
	return &CachedMembership{
		provider: provider,
		cache:    cache.NewTTLCache[string, set.Set[common.Address]](ttl),
	}
}

func (c *CachedMembership) Members(ctx context.Context, chainID string) (set.Set[common.Address], error) {
	return c.cache.Get(chainID, func(id string) (set.Set[common.Address], error) {
		return c.provider.Members(ctx, id)
	})
}

// Membership is a per-round snapshot of every chain's membership. It is
// read-only once fetched.
type Membership map[string]set.Set[common.Address]

// FetchMembership reads the membership of each chain once.
func FetchMembership(ctx context.Context, provider MembershipProvider, chainIDs []string) (Membership, error) {
	m := make(Membership, len(chainIDs))
	for _, id := range chainIDs {
		members, err := provider.Members(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch membership of %s: %w", id, err)
		}
		m[id] = members
	}
	return m, nil
}

// Contains reports whether id is registered on chainID.
func (m Membership) Contains(chainID string, id common.Address) bool {
	return m[chainID].Contains(id)
}
