// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/feeds"
)

const testConfig = `{
	"private-key": "%s",
	"round-length": "30s",
	"chains": [
		{
			"id": "ethereum",
			"network-id": 1,
			"target-contract": "0x00000000000000000000000000000000000000aa",
			"required-signatures": 2,
			"validators": ["0x000000000000000000000000000000000000000a"]
		}
	],
	"feeds": [
		{"key": "BTC-USD", "discrepancy": 1, "precision": 8, "heartbeat": 3600, "trigger": 0.5, "chains": ["ethereum"]}
	],
	"validators": [
		{"id": "0x000000000000000000000000000000000000000a", "power": 10, "location": "http://a:8080"},
		{"id": "0x000000000000000000000000000000000000000b", "power": 20, "location": "http://b:8080"}
	],
	"values": [{"key": "BTC-USD", "value": 100.5}]
}`

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func testPrivateKey(t *testing.T) string {
	sk, err := crypto.GenerateKey()
	require.NoError(t, err)
	return hexutil.Encode(crypto.FromECDSA(sk))
}

func load(t *testing.T, contents string, args ...string) (Config, error) {
	fs := BuildFlagSet()
	require.NoError(t, fs.Parse(append([]string{"--" + ConfigFileKey, writeConfig(t, contents)}, args...)))
	v, err := BuildViper(fs)
	require.NoError(t, err)
	return NewConfig(v)
}

func TestNewConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := load(t, fmt.Sprintf(testConfig, testPrivateKey(t)), "--"+APIPortKey, "8181")
	require.NoError(err)

	require.Equal(uint16(8181), cfg.APIPort)
	require.Equal(defaultMetricsPort, cfg.MetricsPort)
	require.Equal(30*time.Second, cfg.RoundLength)
	require.Equal(defaultSignatureTimeout, cfg.SignatureTimeout)
	require.Equal(defaultStatusTimeout, cfg.StatusTimeout)
	require.Equal(defaultFetchTimeout, cfg.FetchTimeout)
	require.Equal(DefaultMinimumRequiredPower, cfg.MinimumRequiredPower)
	require.Equal(defaultMaxAttempts, cfg.MaxAttempts)
	require.Equal(defaultVerifierCacheSize, cfg.VerifierCacheSize)
	require.Equal(defaultMembershipTTL, cfg.MembershipTTL)
	require.Equal([]string{"*"}, cfg.AllowedOrigins)

	require.Len(cfg.Chains, 1)
	require.Equal(oracle.ChainConfig{
		ID:                 "ethereum",
		NetworkID:          1,
		TargetContract:     common.HexToAddress("0xaa"),
		RequiredSignatures: 2,
		Validators:         []common.Address{common.HexToAddress("0x0a")},
	}, cfg.Chains[0])

	require.Equal([]feeds.Feed{{
		Key:         "BTC-USD",
		Discrepancy: 1,
		Precision:   8,
		Heartbeat:   3600,
		Trigger:     0.5,
		Chains:      []string{"ethereum"},
	}}, cfg.Feeds)

	require.Len(cfg.Validators, 2)
	require.Equal(oracle.NewValidator(common.HexToAddress("0x0b"), 20, "http://b:8080"), cfg.Validators[1])
	require.Equal(map[string]float64{"BTC-USD": 100.5}, cfg.FeedValues())

	require.NotNil(cfg.Signer())
	require.Equal([]string{"ethereum"}, cfg.Registry().IDs())
	require.Contains(cfg.FeedConfig(), "BTC-USD")
}

func TestBuildViperRequiresConfigFile(t *testing.T) {
	_, err := BuildViper(BuildFlagSet())
	require.ErrorIs(t, err, errConfigFileNotSet)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) Config {
		cfg, err := load(t, fmt.Sprintf(testConfig, testPrivateKey(t)))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name        string
		modify      func(*Config)
		expectedErr error
	}{
		{
			name:        "missing private key",
			modify:      func(c *Config) { c.PrivateKey = "" },
			expectedErr: errMissingPrivateKey,
		},
		{
			name:        "port conflict",
			modify:      func(c *Config) { c.MetricsPort = c.APIPort },
			expectedErr: errPortConflict,
		},
		{
			name:        "short round",
			modify:      func(c *Config) { c.RoundLength = time.Millisecond },
			expectedErr: errInvalidRoundLength,
		},
		{
			name:        "zero timeout",
			modify:      func(c *Config) { c.StatusTimeout = 0 },
			expectedErr: errInvalidTimeout,
		},
		{
			name:        "zero attempts",
			modify:      func(c *Config) { c.MaxAttempts = 0 },
			expectedErr: errInvalidMaxAttempts,
		},
		{
			name:        "zero cache",
			modify:      func(c *Config) { c.VerifierCacheSize = 0 },
			expectedErr: errInvalidCacheSize,
		},
		{
			name:        "feed for unknown chain",
			modify:      func(c *Config) { c.Feeds[0].Chains = []string{"polygon"} },
			expectedErr: errFeedForUnknownChain,
		},
		{
			name:        "value for unknown feed",
			modify:      func(c *Config) { c.Values = append(c.Values, FeedValue{Key: "XYZ", Value: 1}) },
			expectedErr: errValueForUnknownFeed,
		},
		{
			name:        "no validators",
			modify:      func(c *Config) { c.Validators = nil },
			expectedErr: oracle.ErrEmptyValidatorSet,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid(t)
			test.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), test.expectedErr)
		})
	}
}
