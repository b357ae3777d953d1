// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/log"
	"github.com/luxfi/version"
)

var errInvalidVersion = errors.New("invalid version")

// ParseVersion parses "major.minor.patch", with an optional "v" prefix and
// an optional "-suffix" that is ignored.
func ParseVersion(s string) (*version.Semantic, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	v, err := version.Parse("v" + s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidVersion, err)
	}
	if v.Major < 0 || v.Minor < 0 || v.Patch < 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidVersion, s)
	}
	return v, nil
}

// CheckVersion logs when a peer runs a newer version than current. It never
// affects the outcome of a round.
func CheckVersion(logger log.Logger, current *version.Semantic, peerVersion string) {
	if peerVersion == "" {
		return
	}
	peer, err := ParseVersion(peerVersion)
	if err != nil {
		logger.Debug("ignoring unparsable peer version",
			log.String("peerVersion", peerVersion),
			log.Err(err),
		)
		return
	}

	switch {
	case peer.Major > current.Major:
		logger.Error("peer runs a newer major version, upgrade required",
			log.Stringer("current", current),
			log.Stringer("peer", peer),
		)
	case peer.Major == current.Major && peer.Minor > current.Minor:
		logger.Info("peer runs a newer minor version, upgrade recommended",
			log.Stringer("current", current),
			log.Stringer("peer", peer),
		)
	case peer.Major == current.Major && peer.Minor == current.Minor && peer.Patch > current.Patch:
		logger.Debug("peer runs a newer patch version",
			log.Stringer("current", current),
			log.Stringer("peer", peer),
		)
	}
}
