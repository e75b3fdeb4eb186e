package view

import (
	"fmt"

	"github.com/ziadkadry99/tinytune/internal/fit"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

// TileTable maps each zoom level to the rendered size of a grid tile. The
// stylesheet is generated from the same table, so server-side fits match
// what the browser lays out.
type TileTable map[zoom.Level]fit.Size

// DefaultTiles returns the stock tile sizes.
func DefaultTiles() TileTable {
	return TileTable{
		zoom.LevelXS:     {Width: 120, Height: 90},
		zoom.LevelSmall:  {Width: 180, Height: 135},
		zoom.LevelMedium: {Width: 240, Height: 180},
		zoom.LevelLarge:  {Width: 320, Height: 240},
		zoom.LevelXL:     {Width: 480, Height: 360},
	}
}

// Size returns the tile size for level, falling back to the default level.
func (t TileTable) Size(level zoom.Level) fit.Size {
	if s, ok := t[level]; ok {
		return s
	}
	return t[zoom.DefaultLevel]
}

// Validate checks that every level has a positive tile and that tiles grow
// with the level.
func (t TileTable) Validate() error {
	var prev fit.Size
	for i, level := range zoom.Levels {
		s, ok := t[level]
		if !ok {
			return fmt.Errorf("missing tile size for zoom level %s", level)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("tile size for zoom level %s must be positive, got %s", level, s)
		}
		if i > 0 && (s.Width < prev.Width || s.Height < prev.Height) {
			return fmt.Errorf("tile size for zoom level %s is smaller than the previous level", level)
		}
		prev = s
	}
	return nil
}
