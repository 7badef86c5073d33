// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import "fmt"

// The shipped map asset for "map wor rhun" is 1624x1620 pixels. World
// coordinates from the decoder map onto it with the thresholds below;
// these are presentation policy, not decoder facts.
const (
	AssetWidth  = 1624
	AssetHeight = 1620

	// worldLeftMax splits the map into left and right halves.
	worldLeftMax = 2500
	// worldTopMin and worldMidMin split it into three vertical bands.
	worldTopMin = 3000
	worldMidMin = 1500
)

// Band is a vertical third of the map.
type Band int

const (
	BandTop Band = iota
	BandMid
	BandBottom
)

func (b Band) String() string {
	switch b {
	case BandTop:
		return "top"
	case BandMid:
		return "mid"
	}
	return "bottom"
}

// Spot is a named starting location with its pixel anchor on the map
// asset.
type Spot struct {
	Name string
	X    int // pixel column on the asset
	Y    int // pixel row on the asset
}

// spotAnchors places the six named spots on the asset. The pixel
// coordinates were measured on the shipped artwork; rows run top to
// bottom, so the top band anchors near the top of the image.
var spotAnchors = map[string]Spot{
	"top left":     {Name: "top left", X: 272, Y: 336},
	"mid left":     {Name: "mid left", X: 198, Y: 896},
	"bottom left":  {Name: "bottom left", X: 344, Y: 1370},
	"top right":    {Name: "top right", X: 1330, Y: 336},
	"mid right":    {Name: "mid right", X: 1370, Y: 850},
	"bottom right": {Name: "bottom right", X: 1314, Y: 1420},
}

// BandFor returns the vertical band for a world y coordinate.
func BandFor(y float64) Band {
	switch {
	case y > worldTopMin:
		return BandTop
	case y > worldMidMin:
		return BandMid
	default:
		return BandBottom
	}
}

// SpotFor names the starting spot for a world position.
func SpotFor(x, y float64) Spot {
	half := "right"
	if x < worldLeftMax {
		half = "left"
	}
	return spotAnchors[fmt.Sprintf("%s %s", BandFor(y), half)]
}
