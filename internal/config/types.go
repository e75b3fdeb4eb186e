package config

import (
	"github.com/ziadkadry99/tinytune/internal/fit"
	"github.com/ziadkadry99/tinytune/internal/view"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

// Config is the top-level tinytune configuration, corresponding to .tinytune.yml.
type Config struct {
	MediaDir      string   `yaml:"media_dir" koanf:"media_dir"`
	DataDir       string   `yaml:"data_dir,omitempty" koanf:"data_dir"`
	Port          int      `yaml:"port" koanf:"port"`
	Include       []string `yaml:"include" koanf:"include"`
	Exclude       []string `yaml:"exclude" koanf:"exclude"`
	MaxFileSize   string   `yaml:"max_file_size,omitempty" koanf:"max_file_size"`
	PreviewSuffix string   `yaml:"preview_suffix" koanf:"preview_suffix"`
	// Thumbnails for large images, and strips for videos when ffmpeg is
	// installed, are rendered into <data dir>/previews.
	GeneratePreviews bool   `yaml:"generate_previews" koanf:"generate_previews"`
	PreviewTimeout   string `yaml:"preview_timeout" koanf:"preview_timeout"`
	DefaultSort      string `yaml:"default_sort" koanf:"default_sort"`
	Watch            bool   `yaml:"watch" koanf:"watch"`
	WatchDebounce    string `yaml:"watch_debounce" koanf:"watch_debounce"`
	CORSAllowAll     bool   `yaml:"cors_allow_all" koanf:"cors_allow_all"`
	Tiles            Tiles  `yaml:"tiles" koanf:"tiles"`
}

// TileSize is the box, in CSS pixels, a preview is fitted into.
type TileSize struct {
	Width  float64 `yaml:"width" koanf:"width"`
	Height float64 `yaml:"height" koanf:"height"`
}

// Tiles holds one tile size per zoom level. They must match the grid CSS.
type Tiles struct {
	XS     TileSize `yaml:"xs" koanf:"xs"`
	Small  TileSize `yaml:"small" koanf:"small"`
	Medium TileSize `yaml:"medium" koanf:"medium"`
	Large  TileSize `yaml:"large" koanf:"large"`
	XL     TileSize `yaml:"xl" koanf:"xl"`
}

// Table converts the tiles to the lookup used by views.
func (t Tiles) Table() view.TileTable {
	return view.TileTable{
		zoom.LevelXS:     fit.Size(t.XS),
		zoom.LevelSmall:  fit.Size(t.Small),
		zoom.LevelMedium: fit.Size(t.Medium),
		zoom.LevelLarge:  fit.Size(t.Large),
		zoom.LevelXL:     fit.Size(t.XL),
	}
}

func tilesFromTable(tt view.TileTable) Tiles {
	return Tiles{
		XS:     TileSize(tt[zoom.LevelXS]),
		Small:  TileSize(tt[zoom.LevelSmall]),
		Medium: TileSize(tt[zoom.LevelMedium]),
		Large:  TileSize(tt[zoom.LevelLarge]),
		XL:     TileSize(tt[zoom.LevelXL]),
	}
}
