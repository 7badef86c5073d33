// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"encoding/binary"
	"math"
)

// cursor provides bounds-checked little-endian reads over an immutable
// byte slice. Every read goes through take, so pos is the single source
// of truth; a failed read reports false and leaves pos unchanged.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte, pos int) *cursor {
	return &cursor{buf: buf, pos: pos}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// take returns the next n bytes and advances, or reports false without
// advancing when fewer than n bytes remain.
func (c *cursor) take(n int) ([]byte, bool) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, false
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, true
}

func (c *cursor) u8() (byte, bool) {
	b, ok := c.take(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (c *cursor) u32() (uint32, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (c *cursor) f32() (float32, bool) {
	u, ok := c.u32()
	if !ok {
		return 0, false
	}
	return math.Float32frombits(u), true
}
