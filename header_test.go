// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"testing"
)

func TestDecodeHeaderTimestamps(t *testing.T) {
	data := replayBytes("M=maps/a.map;S=X")
	h, chunksStart, _, err := decodeHeader(data)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.StartTime != 1_700_000_000 || h.EndTime != 1_700_003_600 {
		t.Errorf("timestamps: %d %d", h.StartTime, h.EndTime)
	}
	if chunksStart != len(data) {
		t.Errorf("chunksStart: got %d, want %d", chunksStart, len(data))
	}
}

func TestDecodeHeaderFields(t *testing.T) {
	data := replayBytes("M=maps/a.map;MC=CAFE;MS=42;SD=7;ZZ=kept;S=X:X")
	h, _, _, err := decodeHeader(data)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.MapPath != "maps/a.map" || h.MapName != "a.map" {
		t.Errorf("map: %q %q", h.MapPath, h.MapName)
	}
	if h.MapCRC != "CAFE" || h.MapSize != "42" || h.Seed != "7" {
		t.Errorf("fields: crc=%q size=%q seed=%q", h.MapCRC, h.MapSize, h.Seed)
	}
	// Unknown keys survive verbatim.
	if h.Fields["ZZ"] != "kept" {
		t.Errorf("unknown key: %q", h.Fields["ZZ"])
	}
	if len(h.Slots) != 2 || h.Slots[0].Kind != SlotEmpty {
		t.Errorf("slots: %+v", h.Slots)
	}
}

func TestMapNameFromPath(t *testing.T) {
	for _, tc := range []struct {
		path, want string
	}{
		{"data/maps/official/x.map", "official/x.map"},
		{"data\\Maps\\custom\\y.map", "custom\\y.map"},
		{"no segment here", "no segment here"},
		{"maps/", "maps/"},
		{"MAPS\\z.map", "z.map"},
		// Multibyte characters before the segment must not shift the cut.
		{"İİmaps/map wor rhun", "map wor rhun"},
	} {
		if got := mapNameFromPath(tc.path); got != tc.want {
			t.Errorf("mapNameFromPath(%q): got %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestParseSlotVariants(t *testing.T) {
	slots, degraded := parseSlots([]byte("HAlice,00C0FFEE,8088,TT,3,1,1,0,3330,0:CEasy,0,8088,TT,4,1,2,1:X:O:Hbroken,nope"))
	if degraded != 1 {
		t.Errorf("degraded: got %d, want 1", degraded)
	}
	if len(slots) != 5 {
		t.Fatalf("slots: got %d", len(slots))
	}
	h := slots[0]
	if h.Kind != SlotHuman || h.Name != "Alice" || h.UID != "00C0FFEE" {
		t.Errorf("human: %+v", h)
	}
	if h.ColorID != 3 || h.FactionID != 1 || h.TeamRaw != 0 {
		t.Errorf("human fields: %+v", h)
	}
	if len(h.Flags) != 2 || h.Flags[0] != "3330" {
		t.Errorf("flags: %v", h.Flags)
	}
	c := slots[1]
	if c.Kind != SlotComputer || c.Name != "Easy" || c.UID != "" {
		t.Errorf("computer: %+v", c)
	}
	if slots[2].Kind != SlotEmpty || slots[3].Kind != SlotEmpty {
		t.Errorf("empty slots: %+v %+v", slots[2], slots[3])
	}
	// A human entry with too few fields degrades, never aborts.
	if slots[4].Kind != SlotEmpty {
		t.Errorf("short entry should degrade to empty: %+v", slots[4])
	}
}

func TestParseSlotsBlankEntryKeepsIndices(t *testing.T) {
	slots, degraded := parseSlots([]byte("HAlice,00C0FFEE,8088,TT,3,1,1,0::HBob,DEADBEEF,8088,TT,4,1,2,1"))
	if degraded != 0 {
		t.Errorf("degraded: got %d, want 0", degraded)
	}
	if len(slots) != 3 {
		t.Fatalf("slots: got %d, want 3", len(slots))
	}
	if slots[1].Kind != SlotEmpty {
		t.Errorf("blank entry should be an empty slot: %+v", slots[1])
	}
	if slots[2].Kind != SlotHuman || slots[2].Name != "Bob" {
		t.Errorf("slot after blank shifted: %+v", slots[2])
	}
}

func TestParseSlotTurkishName(t *testing.T) {
	// 0xFD is dotless i in Windows-1254 and invalid UTF-8 on its own.
	entry := append([]byte{'H', 'Y', 0xFD, 'l', 'd', 0xFD, 'z'}, []byte(",00C0FFEE,8088,TT,0,1,1,0")...)
	s, ok := parseSlot(entry)
	if !ok || s.Name != "Yıldız" {
		t.Errorf("got ok=%v name=%q, want Yıldız", ok, s.Name)
	}
}

func TestDecodeText(t *testing.T) {
	if got := decodeText([]byte("plain utf8 ✓")); got != "plain utf8 ✓" {
		t.Errorf("utf8 passthrough: %q", got)
	}
	// 0xF0 alone is invalid UTF-8; Windows-1254 reads it as ğ.
	if got := decodeText([]byte{0xF0}); got != "ğ" {
		t.Errorf("cp1254: %q", got)
	}
	// 0x9D is undefined in both Windows code pages; Latin-1 keeps it as
	// the control character U+009D.
	if got := decodeText([]byte{0x9D}); got != "\u009d" {
		t.Errorf("latin1 fallback: %q", got)
	}
}

func TestCursorBounds(t *testing.T) {
	c := newCursor([]byte{1, 2, 3, 4, 5}, 0)
	if v, ok := c.u32(); !ok || v != 0x04030201 {
		t.Fatalf("u32: %v %v", v, ok)
	}
	if c.remaining() != 1 {
		t.Fatalf("remaining: %d", c.remaining())
	}
	// A failed read must not advance.
	if _, ok := c.u32(); ok {
		t.Fatal("u32 past end should fail")
	}
	if v, ok := c.u8(); !ok || v != 5 {
		t.Fatalf("u8 after failed read: %v %v", v, ok)
	}
}
