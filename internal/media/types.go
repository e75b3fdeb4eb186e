package media

import (
	"time"

	"github.com/ziadkadry99/tinytune/internal/fit"
)

// Kind classifies an indexed entry.
type Kind string

const (
	KindDir   Kind = "dir"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

// Item is one indexed file or directory below the media root.
type Item struct {
	ID       string    `json:"id"`
	ParentID string    `json:"parent_id"` // empty for entries in the root
	Name     string    `json:"name"`
	RelPath  string    `json:"rel_path"`
	Kind     Kind      `json:"kind"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	// PreviewPath is a sidecar relative to the media root, or an absolute
	// path for previews generated into the data directory.
	PreviewPath   string        `json:"preview_path,omitempty"`
	PreviewWidth  int           `json:"preview_width,omitempty"`
	PreviewHeight int           `json:"preview_height,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"` // videos only
}

// HasStrip reports whether the item is a video with a filmstrip to fit.
func (i Item) HasStrip() bool {
	return i.Kind == KindVideo && i.HasPreview()
}

// HasPreview reports whether a strip or thumbnail is attached.
func (i Item) HasPreview() bool {
	return i.PreviewPath != "" && i.PreviewWidth > 0 && i.PreviewHeight > 0
}

// StripSize returns the intrinsic size of the filmstrip preview.
func (i Item) StripSize() fit.Size {
	return fit.Size{Width: float64(i.PreviewWidth), Height: float64(i.PreviewHeight)}
}

// Stats summarizes the index.
type Stats struct {
	Dirs      int   `json:"dirs"`
	Images    int   `json:"images"`
	Videos    int   `json:"videos"`
	Others    int   `json:"others"`
	Previews  int   `json:"previews"`
	TotalSize int64 `json:"total_size"`
}
