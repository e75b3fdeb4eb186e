package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/tinytune/internal/fit"
)

// Seeking to zero often lands on a black frame; longer videos start later.
const (
	lateStart     = 2 * time.Second
	lateStartFrom = 7 * time.Second
)

// VideoInfo is what ffprobe reports about a video.
type VideoInfo struct {
	Width    int
	Height   int
	Duration time.Duration
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Inspect reads the size and length of a video.
func (g *Generator) Inspect(ctx context.Context, src string) (VideoInfo, error) {
	if !g.CanVideo() {
		return VideoInfo{}, ErrNoVideoTools
	}
	out, err := g.run(ctx, g.FFprobe,
		"-hide_banner", "-loglevel", "quiet",
		"-show_format", "-show_streams", "-of", "json", src)
	if err != nil {
		return VideoInfo{}, err
	}
	return parseFFprobe(out)
}

func parseFFprobe(data []byte) (VideoInfo, error) {
	var p ffprobeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return VideoInfo{}, fmt.Errorf("decoding ffprobe output: %w", err)
	}
	seconds, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parsing duration %q: %w", p.Format.Duration, err)
	}
	for _, s := range p.Streams {
		if s.CodecType == "video" {
			return VideoInfo{
				Width:    s.Width,
				Height:   s.Height,
				Duration: time.Duration(seconds) * time.Second,
			}, nil
		}
	}
	return VideoInfo{}, ErrNoVideoStream
}

// Video writes a filmstrip of fit.FramesPerStrip frames of src stacked
// vertically, each scaled to at most MaxSide wide.
func (g *Generator) Video(ctx context.Context, src, id string) (Result, error) {
	info, err := g.Inspect(ctx, src)
	if err != nil {
		return Result{}, err
	}

	times := frameTimes(info.Duration)
	frames := make([]image.Image, len(times))
	eg, ctx := errgroup.WithContext(ctx)
	for i, ts := range times {
		eg.Go(func() error {
			img, err := g.frame(ctx, src, ts)
			if err != nil {
				return fmt.Errorf("frame at %s: %w", FormatDuration(ts), err)
			}
			frames[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	strip := stack(frames)
	out := g.Path(id)
	if err := writeJPEG(out, strip); err != nil {
		return Result{}, err
	}
	b := strip.Bounds()
	return Result{Path: out, Width: b.Dx(), Height: b.Dy(), Duration: info.Duration}, nil
}

// frameTimes picks up to fit.FramesPerStrip distinct seek positions evenly
// spread over d, at least a second apart. Short videos get fewer; the strip
// repeats the last frame for the rest.
func frameTimes(d time.Duration) []time.Duration {
	step := d / fit.FramesPerStrip
	if step < time.Second {
		step = time.Second
	}
	times := make([]time.Duration, 0, fit.FramesPerStrip)
	for i := 0; i < fit.FramesPerStrip; i++ {
		ts := step * time.Duration(i)
		if i == 0 && d > lateStartFrom {
			ts = lateStart
		}
		if i > 0 && ts >= d {
			break
		}
		times = append(times, ts)
	}
	return times
}

func (g *Generator) frame(ctx context.Context, src string, at time.Duration) (image.Image, error) {
	out, err := g.run(ctx, g.FFmpeg,
		"-loglevel", "quiet", "-accurate_seek",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", src,
		"-frames:v", "1", "-c:v", "bmp", "-f", "image2", "pipe:1")
	if err != nil {
		return nil, err
	}
	img, err := bmp.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	return img, nil
}

// stack scales frames to a common width and draws them top to bottom,
// padding with the last frame up to fit.FramesPerStrip.
func stack(frames []image.Image) *image.RGBA {
	first := frames[0].Bounds()
	w := min(first.Dx(), MaxSide)
	h := max(1, first.Dy()*w/first.Dx())

	strip := image.NewRGBA(image.Rect(0, 0, w, h*fit.FramesPerStrip))
	for i := 0; i < fit.FramesPerStrip; i++ {
		f := frames[min(i, len(frames)-1)]
		dst := image.Rect(0, i*h, w, (i+1)*h)
		draw.ApproxBiLinear.Scale(strip, dst, f, f.Bounds(), draw.Src, nil)
	}
	return strip
}

func (g *Generator) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
	}
	return stdout.Bytes(), nil
}
