// Package preview renders thumbnails for large images and filmstrips for
// videos into a cache directory.
//
// Video strips need ffmpeg and ffprobe on the PATH. Without them only image
// thumbnails are generated and videos keep whatever sidecar strip the media
// folder provides.
package preview

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxSide bounds both sides of a thumbnail and the width of a strip.
const MaxSide = 256

const jpegQuality = 85

var (
	ErrNoVideoTools  = errors.New("ffmpeg and ffprobe are not available")
	ErrNoVideoStream = errors.New("no video stream")
)

// Result describes a generated preview.
type Result struct {
	Path     string // absolute path of the JPEG, empty when none was needed
	Width    int
	Height   int
	Duration time.Duration // videos only
}

// Generator writes previews named after item ids into Dir.
type Generator struct {
	Dir     string
	FFmpeg  string // empty disables video strips
	FFprobe string
	// Timeout bounds every external command, 0 means no limit.
	Timeout time.Duration
}

// New creates a generator writing into dir and looks up ffmpeg and ffprobe.
func New(dir string, timeout time.Duration) (*Generator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("preview: resolve cache dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("preview: creating cache dir: %w", err)
	}

	g := &Generator{Dir: abs, Timeout: timeout}
	ffmpeg, errFFmpeg := exec.LookPath("ffmpeg")
	ffprobe, errFFprobe := exec.LookPath("ffprobe")
	if errFFmpeg != nil || errFFprobe != nil {
		log.Printf("preview: ffmpeg or ffprobe not on PATH, videos keep sidecar strips only")
		return g, nil
	}
	g.FFmpeg, g.FFprobe = ffmpeg, ffprobe
	return g, nil
}

// CanVideo reports whether video strips can be generated.
func (g *Generator) CanVideo() bool {
	return g.FFmpeg != "" && g.FFprobe != ""
}

// Path returns where the preview of the item with the given id is written.
func (g *Generator) Path(id string) string {
	return filepath.Join(g.Dir, id+".jpg")
}

// Image writes a thumbnail of src whose longer side is MaxSide. Images that
// already fit need none; Image returns a Result without a Path for them.
func (g *Generator) Image(src, id string) (Result, error) {
	f, err := os.Open(src)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("decoding %s: %w", filepath.Base(src), err)
	}
	b := img.Bounds()
	if b.Dx() <= MaxSide && b.Dy() <= MaxSide {
		return Result{}, nil
	}

	w, h := thumbnailSize(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	out := g.Path(id)
	if err := writeJPEG(out, dst); err != nil {
		return Result{}, err
	}
	return Result{Path: out, Width: w, Height: h}, nil
}

// thumbnailSize scales w x h so the longer side is MaxSide.
func thumbnailSize(w, h int) (int, int) {
	if w >= h {
		return MaxSide, max(1, h*MaxSide/w)
	}
	return max(1, w*MaxSide/h), MaxSide
}

// Prune removes cached previews whose id is not in keep.
func (g *Generator) Prune(keep map[string]bool) error {
	entries, err := os.ReadDir(g.Dir)
	if err != nil {
		return fmt.Errorf("preview: reading cache dir: %w", err)
	}
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".jpg")
		if !ok || e.IsDir() || keep[id] {
			continue
		}
		if err := os.Remove(filepath.Join(g.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("preview: removing %s: %w", e.Name(), err)
		}
	}
	return nil
}

// writeJPEG encodes img next to path and renames it into place, so readers
// never see a partial file.
func writeJPEG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating preview: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing preview: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storing preview: %w", err)
	}
	return nil
}

// FormatDuration renders a video length as MM:SS, or HH:MM:SS from one
// hour on.
func FormatDuration(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
