// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import "encoding/binary"

// The raw pattern scanner is the safety net for critical events that
// the sequential decoder lost inside a corrupt region. It looks for the
// little-endian byte signatures of the two outcome-bearing orders and
// accepts a match only when the surrounding bytes look like a chunk
// prefix.
const (
	rawScanMinPlayerNum = 3
	rawScanMaxPlayerNum = 20
	rawScanMaxArgGroups = 10
)

var rawScanOrders = []uint32{OrderPlayerDefeated, OrderEndGame}

// rawScanCriticalEvents scans data[start:] for PlayerDefeated and
// EndGame signatures and returns them as synthetic chunks with no
// arguments, marked Recovered.
func rawScanCriticalEvents(data []byte, start int) []Chunk {
	var found []Chunk
	if start < 4 {
		start = 4
	}
	for _, order := range rawScanOrders {
		var sig [4]byte
		binary.LittleEndian.PutUint32(sig[:], order)
		for off := start; off+9 <= len(data); off++ {
			if data[off] != sig[0] || data[off+1] != sig[1] || data[off+2] != sig[2] || data[off+3] != sig[3] {
				continue
			}
			timecode := binary.LittleEndian.Uint32(data[off-4 : off])
			if timecode == 0 || timecode >= maxSaneTimecode {
				continue
			}
			playerNum := binary.LittleEndian.Uint32(data[off+4 : off+8])
			if playerNum < rawScanMinPlayerNum || playerNum > rawScanMaxPlayerNum {
				continue
			}
			if data[off+8] > rawScanMaxArgGroups {
				continue
			}
			found = append(found, Chunk{
				Timecode:  timecode,
				Order:     order,
				PlayerNum: playerNum,
				Span:      Span{Start: off - 4, End: off + 9},
				Recovered: true,
			})
		}
	}
	return found
}

type chunkKey struct {
	playerNum uint32
	order     uint32
	timecode  uint32
}

// mergeRecovered appends scanned critical events that the sequential
// pass did not already produce, deduplicating on (player, order,
// timecode). It returns the merged stream and the count actually added.
func mergeRecovered(chunks, scanned []Chunk) ([]Chunk, int) {
	seen := make(map[chunkKey]bool)
	for _, ck := range chunks {
		if ck.Order == OrderPlayerDefeated || ck.Order == OrderEndGame {
			seen[chunkKey{ck.PlayerNum, ck.Order, ck.Timecode}] = true
		}
	}
	added := 0
	for _, ck := range scanned {
		k := chunkKey{ck.PlayerNum, ck.Order, ck.Timecode}
		if seen[k] {
			continue
		}
		seen[k] = true
		chunks = append(chunks, ck)
		added++
	}
	return chunks, added
}
