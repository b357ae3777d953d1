// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the configuration of an oracle node.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/chains"
	"github.com/luxfi/oracle/feeds"
)

const (
	defaultAPIPort              = uint16(8080)
	defaultMetricsPort          = uint16(9090)
	defaultRoundLength          = time.Minute
	defaultSignatureTimeout     = 15 * time.Second
	defaultStatusTimeout        = 5 * time.Second
	defaultFetchTimeout         = 10 * time.Second
	defaultMaxAttempts          = 2
	defaultVerifierCacheSize    = uint64(128)
	defaultMembershipTTL        = 10 * time.Minute
	DefaultMinimumRequiredPower = uint64(1)
)

var (
	errMissingPrivateKey   = errors.New("private key not set")
	errPortConflict        = errors.New("api and metrics ports must differ")
	errInvalidRoundLength  = errors.New("round length must be at least one second")
	errInvalidTimeout      = errors.New("timeouts must be positive")
	errInvalidMaxAttempts  = errors.New("max attempts must be at least one")
	errInvalidCacheSize    = errors.New("verifier cache size must be positive")
	errFeedForUnknownChain = errors.New("feed targets an unknown chain")
	errValueForUnknownFeed = errors.New("value for unknown feed")
)

// FeedValue is a value served by the static data service.
type FeedValue struct {
	Key   string  `mapstructure:"key" json:"key"`
	Value float64 `mapstructure:"value" json:"value"`
}

type Config struct {
	APIPort              uint16               `mapstructure:"api-port" json:"api-port"`
	MetricsPort          uint16               `mapstructure:"metrics-port" json:"metrics-port"`
	PrivateKey           string               `mapstructure:"private-key" json:"-"`
	RoundLength          time.Duration        `mapstructure:"round-length" json:"round-length"`
	SignatureTimeout     time.Duration        `mapstructure:"signature-timeout" json:"signature-timeout"`
	StatusTimeout        time.Duration        `mapstructure:"status-timeout" json:"status-timeout"`
	FetchTimeout         time.Duration        `mapstructure:"fetch-timeout" json:"fetch-timeout"`
	MinimumRequiredPower uint64               `mapstructure:"minimum-required-power" json:"minimum-required-power"`
	MaxAttempts          int                  `mapstructure:"max-attempts" json:"max-attempts"`
	VerifierCacheSize    uint64               `mapstructure:"verifier-cache-size" json:"verifier-cache-size"`
	MembershipTTL        time.Duration        `mapstructure:"membership-ttl" json:"membership-ttl"`
	AllowedOrigins       []string             `mapstructure:"allowed-origins" json:"allowed-origins"`
	Chains               []oracle.ChainConfig `mapstructure:"chains" json:"chains"`
	Feeds                []feeds.Feed         `mapstructure:"feeds" json:"feeds"`
	Validators           []*oracle.Validator  `mapstructure:"validators" json:"validators"`
	Values               []FeedValue          `mapstructure:"values" json:"values"`

	// Populated by Validate
	signer   oracle.Signer
	registry *chains.Registry
	feeds    feeds.Feeds
}

// Validate checks the configuration and builds the components derived from
// it.
func (c *Config) Validate() error {
	if c.PrivateKey == "" {
		return errMissingPrivateKey
	}
	signer, err := oracle.ParseSigner(c.PrivateKey)
	if err != nil {
		return err
	}
	if c.APIPort == c.MetricsPort {
		return fmt.Errorf("%w: %d", errPortConflict, c.APIPort)
	}
	if c.RoundLength < time.Second {
		return fmt.Errorf("%w: %s", errInvalidRoundLength, c.RoundLength)
	}
	if c.SignatureTimeout <= 0 || c.StatusTimeout <= 0 || c.FetchTimeout <= 0 {
		return errInvalidTimeout
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: %d", errInvalidMaxAttempts, c.MaxAttempts)
	}
	if c.VerifierCacheSize == 0 {
		return errInvalidCacheSize
	}

	registry, err := chains.NewRegistry(c.Chains)
	if err != nil {
		return fmt.Errorf("invalid chains: %w", err)
	}
	feedConfig, err := feeds.New(c.Feeds)
	if err != nil {
		return fmt.Errorf("invalid feeds: %w", err)
	}
	for _, feed := range c.Feeds {
		for _, chainID := range feed.Chains {
			if _, err := registry.Get(chainID); err != nil {
				return fmt.Errorf("%w: %s targets %s", errFeedForUnknownChain, feed.Key, chainID)
			}
		}
	}
	for _, v := range c.Values {
		if _, ok := feedConfig[v.Key]; !ok {
			return fmt.Errorf("%w: %s", errValueForUnknownFeed, v.Key)
		}
	}
	if err := oracle.ValidateValidatorSet(c.Validators); err != nil {
		return fmt.Errorf("invalid validators: %w", err)
	}

	c.signer = signer
	c.registry = registry
	c.feeds = feedConfig
	return nil
}

// Signer returns the key parsed from PrivateKey. Only valid after Validate.
func (c *Config) Signer() oracle.Signer {
	return c.signer
}

// Registry is only valid after Validate.
func (c *Config) Registry() *chains.Registry {
	return c.registry
}

// FeedConfig is only valid after Validate.
func (c *Config) FeedConfig() feeds.Feeds {
	return c.feeds
}

// FeedValues indexes Values by key.
func (c *Config) FeedValues() map[string]float64 {
	values := make(map[string]float64, len(c.Values))
	for _, v := range c.Values {
		values[v.Key] = v.Value
	}
	return values
}
