// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import "sort"

// factionBuildRange maps a band of building template ids to the faction
// that builds them. Players who picked random faction are identified by
// their first sighted building that lands in a band.
type factionBuildRange struct {
	lo, hi  uint32 // inclusive
	faction Faction
}

var factionBuildRanges = []factionBuildRange{
	{2622, 2720, FactionMen},
	{2577, 2620, FactionElves},
	{2541, 2575, FactionDwarves},
	{2151, 2185, FactionGoblins},
	{2060, 2090, FactionIsengard},
	{2130, 2150, FactionMordor},
}

// factionFromBuildings returns the faction of the first sighted
// building id that falls inside a known band.
func factionFromBuildings(ids []uint32) (Faction, bool) {
	for _, id := range ids {
		for _, r := range factionBuildRanges {
			if r.lo <= id && id <= r.hi {
				return r.faction, true
			}
		}
	}
	return FactionUnknown, false
}

// paletteSize is the number of assignable player colors. Id 9 (white)
// is reserved for observers and never assigned.
const paletteSize = 9

// ColorPolicy picks a color id for one random-color player given the
// set of ids already in use, reporting false when the palette is
// exhausted. The engine applies it player by player in slot order,
// marking each pick used before the next call.
type ColorPolicy func(used map[int]bool) (int, bool)

// GapColorPolicy mimics the game's observed assignment: find the
// longest run of unused ids in 0..8 (ties go to the run with the larger
// ending id), then take the run's low end when it spans at least three
// ids, otherwise its high end. The known mis-assignments this produces
// are preserved rather than corrected.
func GapColorPolicy(used map[int]bool) (int, bool) {
	bestStart, bestLen := -1, 0
	runStart, runLen := -1, 0
	for id := 0; id < paletteSize; id++ {
		if used[id] {
			runLen = 0
			continue
		}
		if runLen == 0 {
			runStart = id
		}
		runLen++
		// >= prefers the later run on equal length (larger ending id)
		if runLen >= bestLen {
			bestStart, bestLen = runStart, runLen
		}
	}
	if bestLen == 0 {
		return 0, false
	}
	if bestLen >= 3 {
		return bestStart, true
	}
	return bestStart + bestLen - 1, true
}

// assignColors fills in ColorID for every non-observer player whose
// slot left it negative, in slot order, and returns the count left
// unresolved. Explicit colors are honored as used before any pick.
func assignColors(players []Player, policy ColorPolicy) int {
	if policy == nil {
		policy = GapColorPolicy
	}
	used := make(map[int]bool)
	for _, p := range players {
		if !p.Observer && p.ColorID >= 0 {
			used[p.ColorID] = true
		}
	}
	unresolved := 0
	for i := range players {
		p := &players[i]
		if p.Observer || p.ColorID >= 0 {
			continue
		}
		id, ok := policy(used)
		if !ok {
			unresolved++
			continue
		}
		p.ColorID = id
		used[id] = true
	}
	return unresolved
}

// assignSides labels the teams present among non-observers: the two
// team indices, sorted ascending, become Left and Right. The labels are
// bookkeeping for the winner result, not map geography.
func assignSides(players []Player) map[int]Side {
	var teams []int
	seen := make(map[int]bool)
	for _, p := range players {
		if p.Observer || p.TeamRaw < 0 || seen[p.TeamRaw] {
			continue
		}
		seen[p.TeamRaw] = true
		teams = append(teams, p.TeamRaw)
	}
	sort.Ints(teams)

	sides := make(map[int]Side)
	if len(teams) >= 1 {
		sides[teams[0]] = SideLeft
	}
	if len(teams) >= 2 {
		sides[teams[1]] = SideRight
	}
	for i := range players {
		p := &players[i]
		if p.Observer {
			continue
		}
		p.Side = sides[p.TeamRaw]
	}
	return sides
}

func sideWinner(s Side, certain bool) Winner {
	switch {
	case s == SideLeft && certain:
		return WinnerLeftTeam
	case s == SideRight && certain:
		return WinnerRightTeam
	case s == SideLeft:
		return WinnerLikelyLeftTeam
	case s == SideRight:
		return WinnerLikelyRightTeam
	}
	return WinnerUnknown
}

// lastBuildGapThreshold is the fraction of the match length that the
// per-team last-build timecodes must differ by before the later team is
// called a likely winner.
const lastBuildGapThreshold = 0.05

// inferWinner runs the four-method chain over the fact index:
//  1. the final EndGame event names a certain winner,
//  2. one team fully defeated makes the other side a certain winner,
//  3. strictly fewer defeats makes a side a likely winner,
//  4. a large gap in last build activity makes the later side a likely
//     winner.
//
// With no method and no outcome signal at all the match is
// NotConcluded; with signal but no decision it is Unknown.
func inferWinner(fi *factIndex, players []Player) Winner {
	playerSide := make(map[uint32]Side)
	bySide := make(map[Side][]uint32)
	for _, p := range players {
		if p.Observer || p.Side == SideNone {
			continue
		}
		playerSide[p.PlayerNum] = p.Side
		bySide[p.Side] = append(bySide[p.Side], p.PlayerNum)
	}

	// Method 1: explicit end-game event.
	if e, ok := fi.bestEndgame(); ok {
		if s, ok := playerSide[e.playerNum]; ok && s != SideNone {
			return sideWinner(s, true)
		}
	}

	twoSided := len(bySide[SideLeft]) > 0 && len(bySide[SideRight]) > 0
	if twoSided {
		// Method 2: full elimination.
		for _, s := range []Side{SideLeft, SideRight} {
			all := true
			for _, pn := range bySide[s] {
				if !fi.defeated[pn] {
					all = false
					break
				}
			}
			if all {
				return sideWinner(other(s), true)
			}
		}

		// Method 3: defeat majority.
		if len(fi.defeated) > 0 {
			left, right := 0, 0
			for pn := range fi.defeated {
				switch playerSide[pn] {
				case SideLeft:
					left++
				case SideRight:
					right++
				}
			}
			if left != right {
				if left < right {
					return sideWinner(SideLeft, false)
				}
				return sideWinner(SideRight, false)
			}
		}

		// Method 4: last build activity gap.
		if fi.maxTimecode > 0 {
			lastFor := func(s Side) uint32 {
				var max uint32
				for _, pn := range bySide[s] {
					if tc := fi.lastBuild[pn]; tc > max {
						max = tc
					}
				}
				return max
			}
			left, right := lastFor(SideLeft), lastFor(SideRight)
			gap := left - right
			later := SideLeft
			if right > left {
				gap = right - left
				later = SideRight
			}
			if float64(gap) > lastBuildGapThreshold*float64(fi.maxTimecode) {
				return sideWinner(later, false)
			}
		}
	}

	if len(fi.endgames) == 0 && len(fi.defeated) == 0 {
		return WinnerNotConcluded
	}
	return WinnerUnknown
}

func other(s Side) Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}
