package config

import (
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/view"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".tinytune.yml"

// DefaultDataDirName is created inside the media folder when data_dir is empty.
const DefaultDataDirName = ".tinytune"

// DefaultExcludes are glob patterns excluded from the index by default.
var DefaultExcludes = []string{
	"**/Thumbs.db",
	"**/desktop.ini",
	"**/*.part",
	"**/*.crdownload",
	"**/*.tmp",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MediaDir:         ".",
		Port:             8080,
		Include:          []string{"**"},
		Exclude:          DefaultExcludes,
		PreviewSuffix:    media.DefaultPreviewSuffix,
		GeneratePreviews: true,
		PreviewTimeout:   "1m",
		DefaultSort:      media.DefaultSort,
		Watch:            true,
		WatchDebounce:    "2s",
		Tiles:            tilesFromTable(view.DefaultTiles()),
	}
}
