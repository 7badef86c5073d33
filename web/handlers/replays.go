// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/tarnhelm/bfme2rpt"
	"github.com/tarnhelm/bfme2rpt/model"
)

const defaultListLimit = 50

type replayListResponse struct {
	Replays []*model.ReplayDecode `json:"replays"`
}

type replayDetailResponse struct {
	Replay  *model.ReplayDecode `json:"replay"`
	Summary string              `json:"summary,omitempty"`
}

// ListReplays returns the most recent decoded replays, newest first.
func (h *Handlers) ListReplays(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	decodes, err := h.store.ListDecodes(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list replays failed")
		return
	}
	writeJSON(w, http.StatusOK, replayListResponse{Replays: decodes})
}

// GetReplay returns one decoded replay with its roster and a rendered
// text summary.
func (h *Handlers) GetReplay(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid replay id")
		return
	}

	decode, err := h.store.GetDecodeByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get replay failed")
		return
	}
	if decode == nil {
		writeError(w, http.StatusNotFound, "replay not found")
		return
	}

	resp := replayDetailResponse{Replay: decode}
	if h.renderer != nil {
		resp.Summary = h.renderer.RenderText(replayFromDecode(decode))
	}
	writeJSON(w, http.StatusOK, resp)
}

// replayFromDecode rebuilds enough of a decoded replay from its store
// rows to drive the text renderer.
func replayFromDecode(d *model.ReplayDecode) *bfme2rpt.Replay {
	r := &bfme2rpt.Replay{
		MapName:      d.MapName,
		MapPath:      d.MapPath,
		StartTime:    uint32(d.StartTime),
		EndTime:      uint32(d.EndTime),
		DurationSecs: uint32(d.DurationSecs),
		MaxTimecode:  uint32(d.MaxTimecode),
		Winner:       winnerFromString(d.Winner),
	}
	for _, row := range d.Players {
		p := bfme2rpt.Player{
			Name:      row.Name,
			UID:       row.UID,
			Slot:      row.Slot,
			PlayerNum: uint32(row.PlayerNum),
			TeamRaw:   row.Team,
			Side:      sideFromString(row.Side),
			Faction:   factionFromString(row.Faction),
			ColorID:   row.ColorID,
			Observer:  row.Observer,
			Defeated:  row.Defeated,
		}
		if row.PosX != nil && row.PosY != nil {
			p.Position = &bfme2rpt.Vec3{X: float32(*row.PosX), Y: float32(*row.PosY)}
		}
		r.Players = append(r.Players, p)
	}
	return r
}

func winnerFromString(s string) bfme2rpt.Winner {
	for _, w := range []bfme2rpt.Winner{
		bfme2rpt.WinnerLeftTeam,
		bfme2rpt.WinnerRightTeam,
		bfme2rpt.WinnerLikelyLeftTeam,
		bfme2rpt.WinnerLikelyRightTeam,
		bfme2rpt.WinnerNotConcluded,
	} {
		if w.String() == s {
			return w
		}
	}
	return bfme2rpt.WinnerUnknown
}

func sideFromString(s string) bfme2rpt.Side {
	switch s {
	case "left":
		return bfme2rpt.SideLeft
	case "right":
		return bfme2rpt.SideRight
	}
	return bfme2rpt.SideNone
}

func factionFromString(s string) bfme2rpt.Faction {
	for f := bfme2rpt.FactionMordor; f <= bfme2rpt.FactionAngmar; f++ {
		if f.String() == s {
			return f
		}
	}
	return bfme2rpt.FactionUnknown
}
