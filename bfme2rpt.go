// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package bfme2rpt decodes Battle for Middle-earth II multiplayer replay
// files. A replay is a fixed header (magic, timestamps, a NUL-terminated
// metadata string) followed by a stream of order chunks. The decoder is
// tolerant by construction: the only fatal condition is a file that is not
// a replay at all; everything else degrades to a partial result with
// diagnostics attached.
package bfme2rpt

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{Major: 0, Minor: 3, Patch: 1}
)

// Version returns the package version.
func Version() semver.Version {
	return version
}
