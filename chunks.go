// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

const (
	// Plausibility ceilings for the chunk prefix. A prefix outside these
	// bounds is treated as garbage and triggers resynchronization.
	maxSaneTimecode  = 10_000_000
	maxSanePlayerNum = 100
	maxSaneArgGroups = 100
	maxSaneArgRepeat = 50

	// timecode u32 + order u32 + player_num u32 + argGroupCount u8
	chunkPrefixLen = 13
)

// argSize returns the wire width of one value of the given argument
// type. The widths come from the SAGE engine's order serializer;
// unknown type ids default to four bytes and are kept opaque.
func argSize(typeID byte) int {
	switch typeID {
	case 0x02:
		return 1
	case 0x05:
		return 8
	case 0x06, 0x07:
		return 12
	case 0x08:
		return 16
	default: // 0x00, 0x01, 0x03, 0x04, 0x09, 0x0A, and anything unknown
		return 4
	}
}

// decodeArg reads one argument value of the given type from the cursor.
func decodeArg(c *cursor, typeID byte) (Arg, bool) {
	switch typeID {
	case 0x00:
		v, ok := c.u32()
		return Arg{Kind: ArgInt, TypeID: typeID, Int: v}, ok
	case 0x01:
		v, ok := c.f32()
		return Arg{Kind: ArgFloat, TypeID: typeID, Float: v}, ok
	case 0x02:
		v, ok := c.u8()
		return Arg{Kind: ArgByte, TypeID: typeID, Byte: v}, ok
	case 0x03:
		v, ok := c.u32()
		return Arg{Kind: ArgObjectID, TypeID: typeID, Int: v}, ok
	case 0x06:
		x, ok := c.f32()
		if !ok {
			return Arg{}, false
		}
		y, ok := c.f32()
		if !ok {
			return Arg{}, false
		}
		z, ok := c.f32()
		return Arg{Kind: ArgVec3, TypeID: typeID, Vec: Vec3{X: x, Y: y, Z: z}}, ok
	default:
		raw, ok := c.take(argSize(typeID))
		return Arg{Kind: ArgOpaque, TypeID: typeID, Raw: raw}, ok
	}
}

// decodeChunkAt attempts to decode one chunk starting at off. It
// reports the chunk, the offset just past it, and whether the bytes at
// off form a plausible chunk.
func decodeChunkAt(data []byte, off int) (Chunk, int, bool) {
	c := newCursor(data, off)

	timecode, ok := c.u32()
	if !ok || timecode >= maxSaneTimecode {
		return Chunk{}, 0, false
	}
	order, ok := c.u32()
	if !ok {
		return Chunk{}, 0, false
	}
	playerNum, ok := c.u32()
	if !ok || playerNum > maxSanePlayerNum {
		return Chunk{}, 0, false
	}
	nGroups, ok := c.u8()
	if !ok || int(nGroups) > maxSaneArgGroups {
		return Chunk{}, 0, false
	}

	var args []Arg
	for g := 0; g < int(nGroups); g++ {
		typeID, ok := c.u8()
		if !ok {
			return Chunk{}, 0, false
		}
		repeat, ok := c.u8()
		if !ok || int(repeat) > maxSaneArgRepeat {
			return Chunk{}, 0, false
		}
		for r := 0; r < int(repeat); r++ {
			a, ok := decodeArg(c, typeID)
			if !ok {
				return Chunk{}, 0, false
			}
			args = append(args, a)
		}
	}

	ck := Chunk{
		Timecode:  timecode,
		Order:     order,
		PlayerNum: playerNum,
		Args:      args,
		Span:      Span{Start: off, End: c.pos},
	}
	return ck, c.pos, true
}

type decodeState int

const (
	stateInSync decodeState = iota
	stateResyncing
)

// chunkDecoder walks the chunk region as a two-state machine. InSync
// decodes chunks back to back; the first implausible read flips it to
// Resyncing, which slides forward one byte at a time until a chunk
// decodes again. Chunks decoded before a desync are never discarded.
type chunkDecoder struct {
	data    []byte
	pos     int
	state   decodeState
	resyncs int
}

func newChunkDecoder(data []byte, start int) *chunkDecoder {
	return &chunkDecoder{data: data, pos: start, state: stateInSync}
}

// next returns the next decodable chunk in stream order, resyncing over
// any garbage between chunks.
func (d *chunkDecoder) next() (Chunk, bool) {
	for d.pos+chunkPrefixLen <= len(d.data) {
		if ck, after, ok := decodeChunkAt(d.data, d.pos); ok {
			d.state = stateInSync
			d.pos = after
			return ck, true
		}
		if d.state == stateInSync {
			d.state = stateResyncing
			d.resyncs++
		}
		d.pos++
	}
	return Chunk{}, false
}

// decodeChunks drains the decoder, returning every chunk plus the
// number of resync events.
func decodeChunks(data []byte, start int) ([]Chunk, int) {
	d := newChunkDecoder(data, start)
	var chunks []Chunk
	for {
		ck, ok := d.next()
		if !ok {
			break
		}
		chunks = append(chunks, ck)
	}
	return chunks, d.resyncs
}
