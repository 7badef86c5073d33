// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"bytes"
	"testing"
)

// surround pads a chunk with garbage so the sequential decoder cannot
// reach it but the pattern scanner can.
func surround(chunk []byte) []byte {
	var b bytes.Buffer
	b.Write(bytes.Repeat([]byte{0xFF}, 8))
	b.Write(chunk)
	b.Write(bytes.Repeat([]byte{0xFF}, 8))
	return b.Bytes()
}

func TestRawScanFindsDefeatAndEndgame(t *testing.T) {
	var b bytes.Buffer
	b.Write(surround(bareChunk(4000, OrderPlayerDefeated, 5)))
	b.Write(surround(bareChunk(4100, OrderEndGame, 3)))

	found := rawScanCriticalEvents(b.Bytes(), 0)
	if len(found) != 2 {
		t.Fatalf("found %d events, want 2", len(found))
	}
	for _, ck := range found {
		if !ck.Recovered {
			t.Errorf("scanned chunk not marked recovered: %+v", ck)
		}
	}
	// Defeats are scanned before endgames.
	if found[0].Order != OrderPlayerDefeated || found[0].Timecode != 4000 || found[0].PlayerNum != 5 {
		t.Errorf("defeat: %+v", found[0])
	}
	if found[1].Order != OrderEndGame || found[1].Timecode != 4100 || found[1].PlayerNum != 3 {
		t.Errorf("endgame: %+v", found[1])
	}
}

func TestRawScanContextChecks(t *testing.T) {
	for name, chunk := range map[string][]byte{
		"zero timecode":    bareChunk(0, OrderPlayerDefeated, 5),
		"huge timecode":    bareChunk(maxSaneTimecode, OrderPlayerDefeated, 5),
		"player too low":   bareChunk(4000, OrderPlayerDefeated, 2),
		"player too high":  bareChunk(4000, OrderPlayerDefeated, 21),
		"wrong order code": bareChunk(4000, OrderBuildObject, 5),
	} {
		if found := rawScanCriticalEvents(surround(chunk), 0); len(found) != 0 {
			t.Errorf("%s: scanner accepted %+v", name, found)
		}
	}

	// argGroupCount above the scan ceiling disqualifies the match.
	bad := bareChunk(4000, OrderPlayerDefeated, 5)
	bad[12] = 11
	if found := rawScanCriticalEvents(surround(bad), 0); len(found) != 0 {
		t.Errorf("arg count 11 accepted: %+v", found)
	}
}

func TestMergeRecoveredDedup(t *testing.T) {
	seq := []Chunk{
		{Timecode: 4000, Order: OrderPlayerDefeated, PlayerNum: 5},
		{Timecode: 100, Order: OrderBuildObject, PlayerNum: 3},
	}
	scanned := []Chunk{
		{Timecode: 4000, Order: OrderPlayerDefeated, PlayerNum: 5, Recovered: true}, // duplicate
		{Timecode: 4200, Order: OrderEndGame, PlayerNum: 3, Recovered: true},        // new
		{Timecode: 4200, Order: OrderEndGame, PlayerNum: 3, Recovered: true},        // self-duplicate
	}
	merged, added := mergeRecovered(seq, scanned)
	if added != 1 {
		t.Errorf("added: got %d, want 1", added)
	}
	if len(merged) != 3 {
		t.Fatalf("merged: got %d chunks, want 3", len(merged))
	}
	last := merged[2]
	if last.Order != OrderEndGame || !last.Recovered {
		t.Errorf("merged tail: %+v", last)
	}
}
