// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"
	"testing"
)

// test builders shared by the package tests

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func f32le(v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

// replayBytes assembles a synthetic replay: magic, timestamps, the
// metadata string, a NUL, then the chunk region.
func replayBytes(meta string, chunkRegion ...[]byte) []byte {
	var b bytes.Buffer
	b.WriteString(headerMagic)
	b.Write(u32le(1_700_000_000))
	b.Write(u32le(1_700_003_600))
	b.WriteString(meta)
	b.WriteByte(0)
	for _, c := range chunkRegion {
		b.Write(c)
	}
	return b.Bytes()
}

// bareChunk encodes a chunk with no argument groups.
func bareChunk(tc, order, pn uint32) []byte {
	var b bytes.Buffer
	b.Write(u32le(tc))
	b.Write(u32le(order))
	b.Write(u32le(pn))
	b.WriteByte(0)
	return b.Bytes()
}

// buildChunk encodes a build order carrying one int arg (the building
// template id) and one vec3 arg (the build position).
func buildChunk(tc, pn, buildingID uint32, pos Vec3) []byte {
	var b bytes.Buffer
	b.Write(u32le(tc))
	b.Write(u32le(OrderBuildObject))
	b.Write(u32le(pn))
	b.WriteByte(2)    // two argument groups
	b.WriteByte(0x00) // int
	b.WriteByte(1)    // repeat
	b.Write(u32le(buildingID))
	b.WriteByte(0x06) // vec3
	b.WriteByte(1)
	b.Write(f32le(pos.X))
	b.Write(f32le(pos.Y))
	b.Write(f32le(pos.Z))
	return b.Bytes()
}

// unitChunk encodes a unit command carrying one vec3 arg.
func unitChunk(tc, pn uint32, pos Vec3) []byte {
	var b bytes.Buffer
	b.Write(u32le(tc))
	b.Write(u32le(OrderUnitCommand))
	b.Write(u32le(pn))
	b.WriteByte(1)
	b.WriteByte(0x06)
	b.WriteByte(1)
	b.Write(f32le(pos.X))
	b.Write(f32le(pos.Y))
	b.Write(f32le(pos.Z))
	return b.Bytes()
}

const twoPlayerMeta = "M=data/maps/official/map wor rhun/map wor rhun.map;MC=4A3B2C1D;MS=123456;SD=987;S=HAlice,00C0FFEE,8088,TT,3,1,1,0:X:HBob,DEADBEEF,8088,TT,-1,1,-1,1:X:X:X:X:X"

func TestDecodeNotAReplay(t *testing.T) {
	if _, err := Decode([]byte("GIFREPLAYNOPE")); err != ErrNotAReplay {
		t.Fatalf("expected ErrNotAReplay, got %v", err)
	}
	if _, err := Decode([]byte("BFME2RP")); err != ErrNotAReplay {
		t.Fatalf("short buffer: expected ErrNotAReplay, got %v", err)
	}
}

func TestDecodeRoster(t *testing.T) {
	data := replayBytes(twoPlayerMeta)
	r, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(r.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(r.Players))
	}

	// Alice sits in slot 0, Bob in slot 2 with an empty slot between.
	// Player numbers count occupied slots only, so Bob is 4, not 5.
	a, b := r.Players[0], r.Players[1]
	if a.Name != "Alice" || a.Slot != 0 || a.PlayerNum != 3 {
		t.Errorf("alice: got %q slot=%d pn=%d", a.Name, a.Slot, a.PlayerNum)
	}
	if b.Name != "Bob" || b.Slot != 2 || b.PlayerNum != 4 {
		t.Errorf("bob: got %q slot=%d pn=%d", b.Name, b.Slot, b.PlayerNum)
	}
	if a.UID != "00C0FFEE" || b.UID != "DEADBEEF" {
		t.Errorf("uids: %q %q", a.UID, b.UID)
	}
	if a.Faction != FactionMen {
		t.Errorf("alice faction: got %v", a.Faction)
	}
	if a.ColorID != 3 {
		t.Errorf("alice color: got %d", a.ColorID)
	}
	if a.Side != SideLeft || b.Side != SideRight {
		t.Errorf("sides: %v %v", a.Side, b.Side)
	}
	if r.MapName != "official/map wor rhun/map wor rhun.map" {
		t.Errorf("map name: got %q", r.MapName)
	}
}

func TestDecodeFullMatch(t *testing.T) {
	data := replayBytes(twoPlayerMeta,
		buildChunk(100, 3, 2650, Vec3{X: 1000, Y: 3500}), // Alice builds (Men range)
		buildChunk(120, 4, 2140, Vec3{X: 4000, Y: 900}),  // Bob builds (Mordor range)
		unitChunk(200, 3, Vec3{X: 1100, Y: 3400}),
		bareChunk(5000, OrderPlayerDefeated, 4),
	)
	r, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Bob picked random faction; his first sighted building resolves it.
	if got := r.Players[1].Faction; got != FactionMordor {
		t.Errorf("bob faction: got %v, want Mordor", got)
	}
	// Build position wins over the later unit position.
	if p := r.Players[0].Position; p == nil || p.X != 1000 || p.Y != 3500 {
		t.Errorf("alice position: got %+v", p)
	}
	if !r.Players[1].Defeated {
		t.Error("bob should be defeated")
	}
	// Bob's side fully defeated, so Alice's side wins for certain.
	if r.Winner != WinnerLeftTeam {
		t.Errorf("winner: got %v, want left team", r.Winner)
	}
	if r.MaxTimecode != 5000 || r.DurationSecs != 1000 {
		t.Errorf("duration: max=%d secs=%d", r.MaxTimecode, r.DurationSecs)
	}
	if r.Diagnostics.Resyncs != 0 || r.Diagnostics.RecoveredChunks != 0 {
		t.Errorf("unexpected diagnostics: %+v", r.Diagnostics)
	}
}

func TestDecodeResyncRecovery(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xFF}, 17)
	data := replayBytes(twoPlayerMeta,
		buildChunk(100, 3, 2650, Vec3{X: 1, Y: 2}),
		garbage,
		buildChunk(300, 4, 2140, Vec3{X: 3, Y: 4}),
	)
	r, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(r.Chunks) != 2 {
		t.Fatalf("expected both chunks recovered around the gap, got %d", len(r.Chunks))
	}
	if r.Diagnostics.Resyncs != 1 {
		t.Errorf("resyncs: got %d, want 1", r.Diagnostics.Resyncs)
	}
	if r.Chunks[0].Timecode != 100 || r.Chunks[1].Timecode != 300 {
		t.Errorf("chunk timecodes: %d %d", r.Chunks[0].Timecode, r.Chunks[1].Timecode)
	}
}

func TestDecodeObserverExcluded(t *testing.T) {
	// Slot 3 is an observer (team -1). Their defeat event must not
	// count toward the outcome.
	meta := "M=maps/x.map;S=HAlice,00C0FFEE,8088,TT,0,1,1,0:HBob,DEADBEEF,8088,TT,1,1,2,1:HEve,0BADF00D,8088,TT,2,1,3,-1:X:X:X:X:X"
	data := replayBytes(meta,
		bareChunk(400, OrderPlayerDefeated, 5), // Eve, the observer
	)
	r, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(r.Players) != 3 {
		t.Fatalf("expected 3 roster entries, got %d", len(r.Players))
	}
	eve := r.Players[2]
	if !eve.Observer || eve.Side != SideNone {
		t.Errorf("eve should be a sideless observer: %+v", eve)
	}
	// An observer defeat is not signal: the match never concluded.
	if r.Winner != WinnerNotConcluded {
		t.Errorf("winner: got %v, want not concluded", r.Winner)
	}
	if eve.Defeated {
		t.Error("observer defeat must not be recorded on the roster")
	}
}

func TestDecodeIdempotent(t *testing.T) {
	data := replayBytes(twoPlayerMeta,
		buildChunk(100, 3, 2650, Vec3{X: 1, Y: 2}),
		bareChunk(900, OrderEndGame, 3),
		bareChunk(900, OrderPlayerDefeated, 4),
	)
	r1, err := Decode(data)
	if err != nil {
		t.Fatalf("decode 1: %v", err)
	}
	r2, err := Decode(data)
	if err != nil {
		t.Fatalf("decode 2: %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Error("two decodes of the same buffer differ")
	}
}

func TestDecodeNoMetadataTerminator(t *testing.T) {
	// Missing NUL: header still decodes, chunk region is empty.
	var b bytes.Buffer
	b.WriteString(headerMagic)
	b.Write(u32le(1))
	b.Write(u32le(2))
	b.WriteString("M=maps/x.map;S=HAlice,00C0FFEE,8088,TT,0,1,1,0:X")
	r, err := Decode(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(r.Players) != 1 || len(r.Chunks) != 0 {
		t.Errorf("players=%d chunks=%d", len(r.Players), len(r.Chunks))
	}
}
