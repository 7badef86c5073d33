// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

// PlayerColor is one entry of the in-game player palette.
type PlayerColor struct {
	ID   int
	Name string
	R    uint8
	G    uint8
	B    uint8
}

// playerColors is the palette in game id order. Id 9 (white) is
// reserved for observers; the decoder never assigns it.
var playerColors = []PlayerColor{
	{0, "blue", 0x00, 0x70, 0xFF},
	{1, "red", 0xE0, 0x20, 0x20},
	{2, "yellow", 0xF0, 0xE0, 0x20},
	{3, "green", 0x20, 0xC0, 0x40},
	{4, "orange", 0xF0, 0x90, 0x20},
	{5, "cyan", 0x20, 0xD0, 0xD0},
	{6, "purple", 0x90, 0x30, 0xE0},
	{7, "pink", 0xF0, 0x70, 0xB0},
	{8, "grey", 0x80, 0x80, 0x80},
	{9, "white", 0xFF, 0xFF, 0xFF},
}

// ColorByID returns the palette entry for a color id. Unknown or
// unassigned ids report false.
func ColorByID(id int) (PlayerColor, bool) {
	if id < 0 || id >= len(playerColors) {
		return PlayerColor{}, false
	}
	return playerColors[id], true
}
