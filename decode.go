// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"log/slog"
)

// ticksPerSecond converts timecodes to an estimated wall-clock
// duration. The engine logic runs five command frames per second.
const ticksPerSecond = 5

// firstPlayerNum is the wire player number of the first occupied slot.
// The stream numbers players 3, 4, 5, ... over occupied slots in order,
// skipping empty slots entirely.
const firstPlayerNum = 3

// Decoder decodes replay buffers. The zero value is ready to use; the
// fields customize inference and debug output.
type Decoder struct {
	// Colors resolves random-color slots. Nil means GapColorPolicy.
	Colors ColorPolicy
	// Logger receives debug diagnostics during the decode. Nil disables.
	Logger *slog.Logger
}

// Decode runs the zero-value Decoder on data.
func Decode(data []byte) (*Replay, error) {
	var d Decoder
	return d.Decode(data)
}

// Decode parses one replay buffer into a Replay. It is pure: no state
// is shared between calls, and equal inputs produce equal results. The
// only error is ErrNotAReplay; all tolerated corruption is reported in
// the result's Diagnostics.
func (d *Decoder) Decode(data []byte) (*Replay, error) {
	header, chunksStart, degraded, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	players := buildRoster(header.Slots)
	chunks, resyncs := decodeChunks(data, chunksStart)
	scanned := rawScanCriticalEvents(data, chunksStart)
	chunks, recovered := mergeRecovered(chunks, scanned)
	if d.Logger != nil {
		d.Logger.Debug("decoded chunk stream",
			"chunks", len(chunks), "resyncs", resyncs, "recovered", recovered)
	}

	counted := make(map[uint32]bool, len(players))
	for _, p := range players {
		if !p.Observer {
			counted[p.PlayerNum] = true
		}
	}
	facts := buildFacts(chunks, func(pn uint32) bool { return counted[pn] })

	r := &Replay{
		MapName:     header.MapName,
		MapPath:     header.MapPath,
		StartTime:   header.StartTime,
		EndTime:     header.EndTime,
		Players:     players,
		MaxTimecode: facts.maxTimecode,
		Chunks:      chunks,
		Header:      header,
	}
	r.DurationSecs = facts.maxTimecode / ticksPerSecond
	r.Diagnostics = Diagnostics{
		Resyncs:         resyncs,
		RecoveredChunks: recovered,
		DegradedSlots:   degraded,
	}

	d.infer(r, facts)
	return r, nil
}

// infer runs faction, color, position, side, and winner resolution over
// the roster, recording unresolved counts in the diagnostics.
func (d *Decoder) infer(r *Replay, facts *factIndex) {
	for i := range r.Players {
		p := &r.Players[i]
		if p.Observer {
			continue
		}
		if p.Faction == FactionUnknown {
			if f, ok := factionFromBuildings(facts.buildings[p.PlayerNum]); ok {
				p.Faction = f
			} else {
				r.Diagnostics.UnresolvedFactions++
			}
		}
		if v, ok := facts.position(p.PlayerNum); ok {
			pos := v
			p.Position = &pos
		} else {
			r.Diagnostics.UnresolvedPositions++
		}
		p.Defeated = facts.defeated[p.PlayerNum]
	}

	r.Diagnostics.UnresolvedColors = assignColors(r.Players, d.Colors)
	assignSides(r.Players)
	r.Winner = inferWinner(facts, r.Players)
}

// buildRoster maps occupied slots to players. Wire player numbers are
// assigned 3, 4, 5, ... across occupied slots in slot order; empty
// slots consume no number. A slot with team_raw -1 is an observer.
func buildRoster(slots []Slot) []Player {
	var players []Player
	next := uint32(firstPlayerNum)
	for i, s := range slots {
		if s.Kind == SlotEmpty {
			continue
		}
		players = append(players, Player{
			Name:      s.Name,
			UID:       s.UID,
			Slot:      i,
			PlayerNum: next,
			Kind:      s.Kind,
			TeamRaw:   s.TeamRaw,
			Faction:   FactionFromID(s.FactionID),
			ColorID:   s.ColorID,
			Observer:  s.TeamRaw < 0,
		})
		next++
	}
	return players
}
