// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

const headerMagic = "BFME2RPL"

// fixedHeaderLen covers the magic plus the two u32 timestamps.
const fixedHeaderLen = len(headerMagic) + 8

// decodeHeader parses the fixed header and the NUL-terminated metadata
// string. It returns the header, the offset of the first chunk byte,
// and the count of slot entries that had to be degraded to empty.
// The only error is ErrNotAReplay.
func decodeHeader(data []byte) (*Header, int, int, error) {
	if len(data) < fixedHeaderLen || string(data[:len(headerMagic)]) != headerMagic {
		return nil, 0, 0, ErrNotAReplay
	}

	h := &Header{Fields: make(map[string]string)}
	copy(h.Magic[:], data[:8])
	h.StartTime = binary.LittleEndian.Uint32(data[8:12])
	h.EndTime = binary.LittleEndian.Uint32(data[12:16])

	meta := data[fixedHeaderLen:]
	chunksStart := len(data) // no NUL means no chunk region
	if i := bytes.IndexByte(meta, 0); i >= 0 {
		chunksStart = fixedHeaderLen + i + 1
		meta = meta[:i]
	}

	degraded := 0
	for _, kv := range bytes.Split(meta, []byte{';'}) {
		eq := bytes.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		key, val := string(kv[:eq]), kv[eq+1:]
		switch key {
		case "M":
			h.MapPath = decodeText(val)
			h.MapName = mapNameFromPath(h.MapPath)
		case "MC":
			h.MapCRC = string(val)
		case "MS":
			h.MapSize = string(val)
		case "SD":
			h.Seed = string(val)
		case "S":
			h.Slots, degraded = parseSlots(val)
		}
		h.Fields[key] = decodeText(val)
	}

	return h, chunksStart, degraded, nil
}

// mapNameFromPath returns the portion of the map path after its last
// "maps/" or "maps\" segment, or the whole path when no such segment
// exists. The match is case-insensitive over the original bytes; case
// folding the whole path first is unsafe because folding can change
// byte offsets.
func mapNameFromPath(path string) string {
	const seg = "maps"
	for i := len(path) - len(seg) - 2; i >= 0; i-- {
		if !strings.EqualFold(path[i:i+len(seg)], seg) {
			continue
		}
		if c := path[i+len(seg)]; c == '/' || c == '\\' {
			return path[i+len(seg)+1:]
		}
	}
	return path
}

// parseSlots splits the S value on colons and classifies each entry.
// Malformed entries never abort the parse; they degrade to empty slots
// and the degraded count is reported.
func parseSlots(val []byte) ([]Slot, int) {
	entries := bytes.Split(val, []byte{':'})
	slots := make([]Slot, 0, len(entries))
	degraded := 0
	for _, e := range entries {
		e = bytes.TrimSpace(e)
		if len(e) == 0 {
			// A blank entry is an empty slot; dropping it would shift
			// the indices of every slot after it.
			slots = append(slots, Slot{Kind: SlotEmpty})
			continue
		}
		s, ok := parseSlot(e)
		if !ok {
			degraded++
		}
		slots = append(slots, s)
	}
	return slots, degraded
}

// parseSlot decodes one slot entry. The leading tag picks the variant:
// H human, C computer, X or O empty. Occupied entries carry at least
// eight comma fields; anything shorter is degraded to empty. The second
// return value is false only for a degraded entry.
func parseSlot(entry []byte) (Slot, bool) {
	var kind SlotKind
	switch entry[0] {
	case 'H':
		kind = SlotHuman
	case 'C':
		kind = SlotComputer
	case 'X', 'O':
		return Slot{Kind: SlotEmpty}, true
	default:
		return Slot{Kind: SlotEmpty}, false
	}

	parts := bytes.Split(entry, []byte{','})
	if len(parts) < 8 {
		return Slot{Kind: SlotEmpty}, false
	}

	name := decodeText(parts[0][1:]) // strip the tag byte
	if name == "" {
		return Slot{Kind: SlotEmpty}, false
	}

	s := Slot{
		Kind:      kind,
		Name:      name,
		PortRaw:   string(parts[2]),
		ModeRaw:   string(parts[3]),
		ColorID:   atoiOr(parts[4], -1),
		Unknown5:  string(parts[5]),
		FactionID: atoiOr(parts[6], -1),
		TeamRaw:   atoiOr(parts[7], -1),
	}
	if uid := string(parts[1]); len(uid) == 8 {
		s.UID = uid
	}
	for _, f := range parts[8:] {
		s.Flags = append(s.Flags, decodeText(f))
	}
	return s, true
}

func atoiOr(b []byte, def int) int {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return def
	}
	return n
}
