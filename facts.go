// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

// endgameEvent is one order-29 sighting, kept in stream order so ties
// on timecode resolve to the first encountered.
type endgameEvent struct {
	timecode  uint32
	playerNum uint32
}

// factIndex is a single fold over the merged chunk stream. Only player
// numbers accepted by the counted filter (non-observer roster members)
// contribute to the aggregates; MaxTimecode alone is taken over the
// whole stream because it feeds the duration estimate.
type factIndex struct {
	defeated    map[uint32]bool
	endgames    []endgameEvent
	lastBuild   map[uint32]uint32
	buildPos    map[uint32]Vec3
	unitPos     map[uint32]Vec3
	buildings   map[uint32][]uint32 // sighting order, deduplicated
	seen        map[uint32]map[uint32]bool
	maxTimecode uint32
}

func newFactIndex() *factIndex {
	return &factIndex{
		defeated:  make(map[uint32]bool),
		lastBuild: make(map[uint32]uint32),
		buildPos:  make(map[uint32]Vec3),
		unitPos:   make(map[uint32]Vec3),
		buildings: make(map[uint32][]uint32),
		seen:      make(map[uint32]map[uint32]bool),
	}
}

// buildFacts folds the merged chunk stream into a factIndex. counted
// reports whether a wire player number belongs to a non-observer.
func buildFacts(chunks []Chunk, counted func(uint32) bool) *factIndex {
	fi := newFactIndex()
	for _, ck := range chunks {
		if ck.Timecode > fi.maxTimecode {
			fi.maxTimecode = ck.Timecode
		}
		if !counted(ck.PlayerNum) {
			continue
		}
		switch ck.Order {
		case OrderPlayerDefeated:
			fi.defeated[ck.PlayerNum] = true
		case OrderEndGame:
			fi.endgames = append(fi.endgames, endgameEvent{ck.Timecode, ck.PlayerNum})
		case OrderBuildObject, OrderBuildObjectAlt:
			if ck.Timecode > fi.lastBuild[ck.PlayerNum] {
				fi.lastBuild[ck.PlayerNum] = ck.Timecode
			}
			fi.recordBuildArgs(ck)
		case OrderUnitCommand:
			if _, have := fi.unitPos[ck.PlayerNum]; !have {
				if v, ok := firstVec3(ck.Args); ok {
					fi.unitPos[ck.PlayerNum] = v
				}
			}
		}
	}
	return fi
}

// recordBuildArgs captures the first build position and every distinct
// building type id (the 2000..3000 band holds structure templates).
func (fi *factIndex) recordBuildArgs(ck Chunk) {
	if _, have := fi.buildPos[ck.PlayerNum]; !have {
		if v, ok := firstVec3(ck.Args); ok {
			fi.buildPos[ck.PlayerNum] = v
		}
	}
	for _, a := range ck.Args {
		if a.Kind != ArgInt {
			continue
		}
		if a.Int <= 2000 || a.Int >= 3000 {
			continue
		}
		set := fi.seen[ck.PlayerNum]
		if set == nil {
			set = make(map[uint32]bool)
			fi.seen[ck.PlayerNum] = set
		}
		if !set[a.Int] {
			set[a.Int] = true
			fi.buildings[ck.PlayerNum] = append(fi.buildings[ck.PlayerNum], a.Int)
		}
	}
}

func firstVec3(args []Arg) (Vec3, bool) {
	for _, a := range args {
		if a.Kind == ArgVec3 {
			return a.Vec, true
		}
	}
	return Vec3{}, false
}

// position resolves a player's position: the first build position wins,
// a unit-command position is the fallback.
func (fi *factIndex) position(playerNum uint32) (Vec3, bool) {
	if v, ok := fi.buildPos[playerNum]; ok {
		return v, true
	}
	if v, ok := fi.unitPos[playerNum]; ok {
		return v, true
	}
	return Vec3{}, false
}

// bestEndgame returns the end-game event with the greatest timecode.
// Ties keep the earliest event in stream order.
func (fi *factIndex) bestEndgame() (endgameEvent, bool) {
	if len(fi.endgames) == 0 {
		return endgameEvent{}, false
	}
	best := fi.endgames[0]
	for _, e := range fi.endgames[1:] {
		if e.timecode > best.timecode {
			best = e
		}
	}
	return best, true
}
