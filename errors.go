// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import "errors"

// ErrNotAReplay is the only fatal decode error: the buffer does not
// start with the replay signature or is too short to hold the fixed
// header. Every other malformation degrades to a partial result.
var ErrNotAReplay = errors.New("not a bfme2 replay")
