// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package renderer turns decoded replays into presentation output. All
// naming policy lives here: starting-spot names, palette names, side
// labels in prose. The decoder only supplies coordinates and ids.
package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/tarnhelm/bfme2rpt"
)

type Renderer struct {
	showSpots  bool
	showColors bool
}

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		showSpots:  true,
		showColors: true,
	}
	for _, option := range options {
		err := option(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RenderText renders a plain-text match summary.
func (r *Renderer) RenderText(replay *bfme2rpt.Replay) string {
	var b strings.Builder

	start := time.Unix(int64(replay.StartTime), 0).UTC()
	dur := time.Duration(replay.DurationSecs) * time.Second
	fmt.Fprintf(&b, "%s - %s (about %s)\n", replay.MapName, start.Format("2006-01-02 15:04"), dur)

	for _, side := range []bfme2rpt.Side{bfme2rpt.SideLeft, bfme2rpt.SideRight} {
		players := sidePlayers(replay, side)
		if len(players) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s team:\n", side)
		for _, p := range players {
			b.WriteString("  ")
			b.WriteString(r.describePlayer(p))
			b.WriteByte('\n')
		}
	}

	if obs := replay.Observers(); len(obs) > 0 {
		names := make([]string, len(obs))
		for i, p := range obs {
			names[i] = p.Name
		}
		fmt.Fprintf(&b, "observers: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "winner: %s\n", replay.Winner)
	return b.String()
}

// describePlayer formats one roster line: name, faction, color, spot.
func (r *Renderer) describePlayer(p bfme2rpt.Player) string {
	var parts []string
	if p.Faction != bfme2rpt.FactionUnknown {
		parts = append(parts, p.Faction.String())
	}
	if r.showColors {
		if c, ok := ColorByID(p.ColorID); ok {
			parts = append(parts, c.Name)
		}
	}
	if r.showSpots && p.Position != nil {
		spot := SpotFor(float64(p.Position.X), float64(p.Position.Y))
		parts = append(parts, spot.Name)
	}
	if p.Defeated {
		parts = append(parts, "defeated")
	}
	if len(parts) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, strings.Join(parts, ", "))
}

func sidePlayers(replay *bfme2rpt.Replay, side bfme2rpt.Side) []bfme2rpt.Player {
	var out []bfme2rpt.Player
	for _, p := range replay.Players {
		if !p.Observer && p.Side == side {
			out = append(out, p)
		}
	}
	return out
}
