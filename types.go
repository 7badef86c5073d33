// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import "fmt"

// Order codes observed in the chunk stream. Build orders and the unit
// command feed position and faction inference; EndGame and PlayerDefeated
// feed winner inference.
const (
	OrderEndGame        uint32 = 29
	OrderBuildObject    uint32 = 1049
	OrderBuildObjectAlt uint32 = 1050
	OrderUnitCommand    uint32 = 1071
	OrderPlayerDefeated uint32 = 1096
)

// Span is a half-open byte range [Start, End) in the source buffer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SlotKind classifies a lobby slot entry.
type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotHuman
	SlotComputer
)

func (k SlotKind) String() string {
	switch k {
	case SlotEmpty:
		return "empty"
	case SlotHuman:
		return "human"
	case SlotComputer:
		return "computer"
	}
	return fmt.Sprintf("slotkind(%d)", int(k))
}

// Slot is one entry from the header's colon-separated slot list. Fields
// past Kind are meaningful only for occupied slots. TeamRaw is the 0..3
// team index, or -1 for observers.
type Slot struct {
	Kind      SlotKind
	Name      string
	UID       string // 8-hex-digit account id, empty if absent
	PortRaw   string
	ModeRaw   string
	ColorID   int // -1 means random, resolved during inference
	Unknown5  string
	FactionID int // -1 means random, resolved from build orders
	TeamRaw   int
	Flags     []string
}

// Header is the decoded fixed header plus metadata string.
type Header struct {
	Magic     [8]byte
	StartTime uint32 // unix seconds
	EndTime   uint32 // unix seconds
	MapPath   string
	MapName   string
	MapCRC    string
	MapSize   string
	Seed      string
	Fields    map[string]string // every KEY=VALUE pair, unknown keys preserved
	Slots     []Slot
}

// Faction is a playable faction. The zero value is Mordor because the
// game encodes factions 0..7; use FactionUnknown for unresolved.
type Faction int

const (
	FactionUnknown  Faction = -1
	FactionMordor   Faction = 0
	FactionMen      Faction = 1
	FactionIsengard Faction = 2
	FactionRohan    Faction = 3
	FactionDwarves  Faction = 4
	FactionElves    Faction = 5
	FactionGoblins  Faction = 6
	FactionAngmar   Faction = 7
)

func (f Faction) String() string {
	switch f {
	case FactionMordor:
		return "Mordor"
	case FactionMen:
		return "Men"
	case FactionIsengard:
		return "Isengard"
	case FactionRohan:
		return "Rohan"
	case FactionDwarves:
		return "Dwarves"
	case FactionElves:
		return "Elves"
	case FactionGoblins:
		return "Goblins"
	case FactionAngmar:
		return "Angmar"
	case FactionUnknown:
		return "Unknown"
	}
	return fmt.Sprintf("Faction(%d)", int(f))
}

// FactionFromID maps a slot faction_id to a Faction. IDs outside the
// known table resolve to FactionUnknown; a negative id means the player
// picked random and the faction must be inferred from build orders.
func FactionFromID(id int) Faction {
	if id >= 0 && id <= 7 {
		return Faction(id)
	}
	return FactionUnknown
}

// Vec3 is a world-space position from a chunk argument.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// ArgKind tags the decoded form of a chunk argument.
type ArgKind int

const (
	ArgInt ArgKind = iota
	ArgFloat
	ArgByte
	ArgObjectID
	ArgVec3
	ArgOpaque
)

// Arg is one decoded chunk argument. Kind selects which field carries
// the value; Opaque args keep their declared type id and raw bytes.
type Arg struct {
	Kind   ArgKind
	TypeID byte
	Int    uint32
	Float  float32
	Byte   byte
	Vec    Vec3
	Raw    []byte
}

// Chunk is one decoded order. Recovered marks chunks reconstructed by
// the raw pattern scanner rather than the sequential decoder.
type Chunk struct {
	Timecode  uint32
	Order     uint32
	PlayerNum uint32
	Args      []Arg
	Span      Span
	Recovered bool
}

// Side labels the two teams of a match. The labels come from sorting
// the team indices present, not from map geography.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return "none"
}

// Winner is the outcome of the winner-inference chain.
type Winner int

const (
	// WinnerUnknown means the stream carried some outcome signal but no
	// method could turn it into a decision.
	WinnerUnknown Winner = iota
	WinnerLeftTeam
	WinnerRightTeam
	WinnerLikelyLeftTeam
	WinnerLikelyRightTeam
	// WinnerNotConcluded means the stream carried no outcome signal at
	// all, which usually indicates a disconnect or crash.
	WinnerNotConcluded
)

func (w Winner) String() string {
	switch w {
	case WinnerLeftTeam:
		return "left team"
	case WinnerRightTeam:
		return "right team"
	case WinnerLikelyLeftTeam:
		return "likely left team"
	case WinnerLikelyRightTeam:
		return "likely right team"
	case WinnerNotConcluded:
		return "not concluded"
	}
	return "unknown"
}

// Certain reports whether the winner was determined by a certain method
// (an explicit end-game event or a full elimination).
func (w Winner) Certain() bool {
	return w == WinnerLeftTeam || w == WinnerRightTeam
}

// Decided reports whether any side was picked, certain or likely.
func (w Winner) Decided() bool {
	switch w {
	case WinnerLeftTeam, WinnerRightTeam, WinnerLikelyLeftTeam, WinnerLikelyRightTeam:
		return true
	}
	return false
}

// Player is one roster entry. Observers appear with Observer set, no
// side, and are excluded from all outcome inference.
type Player struct {
	Name      string   `json:"name"`
	UID       string   `json:"uid,omitempty"`
	Slot      int      `json:"slot"`
	PlayerNum uint32   `json:"playerNum"`
	Kind      SlotKind `json:"-"`
	TeamRaw   int      `json:"team"`
	Side      Side     `json:"-"`
	Faction   Faction  `json:"-"`
	ColorID   int      `json:"colorId"` // -1 if no color could be assigned
	Position  *Vec3    `json:"position,omitempty"`
	Observer  bool     `json:"observer,omitempty"`
	Defeated  bool     `json:"defeated,omitempty"`
}

// Diagnostics summarizes every tolerated-corruption and
// unresolved-inference event from one decode.
type Diagnostics struct {
	Resyncs             int `json:"resyncs"`             // InSync to Resyncing transitions
	RecoveredChunks     int `json:"recoveredChunks"`     // critical events found only by the raw scan
	DegradedSlots       int `json:"degradedSlots"`       // malformed slot entries treated as empty
	UnresolvedFactions  int `json:"unresolvedFactions"`  // random faction, no build sighting matched
	UnresolvedColors    int `json:"unresolvedColors"`    // random color, palette exhausted
	UnresolvedPositions int `json:"unresolvedPositions"` // no build or unit position observed
}

// Replay is the complete decode result. It is a pure function of the
// input buffer; decoding the same bytes twice yields equal values.
type Replay struct {
	MapName   string   `json:"mapName"`
	MapPath   string   `json:"mapPath"`
	StartTime uint32   `json:"startTime"`
	EndTime   uint32   `json:"endTime"`
	Players   []Player `json:"players"`
	Winner    Winner   `json:"-"`

	// MaxTimecode is the greatest timecode observed anywhere in the
	// stream. DurationSecs estimates wall time at 5 ticks per second.
	MaxTimecode  uint32 `json:"maxTimecode"`
	DurationSecs uint32 `json:"durationSecs"`

	Chunks      []Chunk     `json:"-"`
	Header      *Header     `json:"-"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Observers returns the roster entries flagged as observers.
func (r *Replay) Observers() []Player {
	var obs []Player
	for _, p := range r.Players {
		if p.Observer {
			obs = append(obs, p)
		}
	}
	return obs
}

// Combatants returns the non-observer roster entries.
func (r *Replay) Combatants() []Player {
	var out []Player
	for _, p := range r.Players {
		if !p.Observer {
			out = append(out, p)
		}
	}
	return out
}
