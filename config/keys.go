// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable prefix. ORACLE_CONFIG_FILE sets config-file.
	EnvPrefix = "oracle"

	// Top-level configuration keys
	APIPortKey              = "api-port"
	MetricsPortKey          = "metrics-port"
	PrivateKeyKey           = "private-key"
	RoundLengthKey          = "round-length"
	SignatureTimeoutKey     = "signature-timeout"
	StatusTimeoutKey        = "status-timeout"
	FetchTimeoutKey         = "fetch-timeout"
	MinimumRequiredPowerKey = "minimum-required-power"
	MaxAttemptsKey          = "max-attempts"
	VerifierCacheSizeKey    = "verifier-cache-size"
	MembershipTTLKey        = "membership-ttl"
	AllowedOriginsKey       = "allowed-origins"
	ChainsKey               = "chains"
	FeedsKey                = "feeds"
	ValidatorsKey           = "validators"
	ValuesKey               = "values"
)
