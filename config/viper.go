// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var errConfigFileNotSet = errors.New("config file not set")

func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// BuildFlagSet returns the flags every command accepts.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("oracle-node", pflag.ContinueOnError)
	fs.String(ConfigFileKey, "", "path to the JSON configuration file")
	fs.Uint16(APIPortKey, defaultAPIPort, "port the validator endpoints are served on")
	fs.Uint16(MetricsPortKey, defaultMetricsPort, "port metrics are served on")
	return fs
}

// Build the viper instance. The config file must be provided via the command line flag or environment variable.
// All config keys may be provided via config file or environment variable.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Map flag names to env var names. Flags are capitalized, and hyphens are replaced with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if !v.IsSet(ConfigFileKey) {
		return nil, errConfigFileNotSet
	}

	filename := v.GetString(ConfigFileKey)
	v.SetConfigFile(filename)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return v, nil
}

func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(APIPortKey, defaultAPIPort)
	v.SetDefault(MetricsPortKey, defaultMetricsPort)
	v.SetDefault(RoundLengthKey, defaultRoundLength)
	v.SetDefault(SignatureTimeoutKey, defaultSignatureTimeout)
	v.SetDefault(StatusTimeoutKey, defaultStatusTimeout)
	v.SetDefault(FetchTimeoutKey, defaultFetchTimeout)
	v.SetDefault(MinimumRequiredPowerKey, DefaultMinimumRequiredPower)
	v.SetDefault(MaxAttemptsKey, defaultMaxAttempts)
	v.SetDefault(VerifierCacheSizeKey, defaultVerifierCacheSize)
	v.SetDefault(MembershipTTLKey, defaultMembershipTTL)
	v.SetDefault(AllowedOriginsKey, []string{"*"})
}

// BuildConfig constructs the node config using Viper.
// The following precedence order is used. Each item takes precedence over the item below it:
//  1. Flags
//  2. Environment variables
//  3. Config file
//  4. Defaults
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	return cfg, nil
}
