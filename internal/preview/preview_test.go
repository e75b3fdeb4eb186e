package preview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/ziadkadry99/tinytune/internal/fit"
)

func writeImage(t *testing.T, path string, w, h int, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func encodePNG(f *os.File, img image.Image) error { return png.Encode(f, img) }
func encodeBMP(f *os.File, img image.Image) error { return bmp.Encode(f, img) }

func decodeJPEG(t *testing.T, path string) image.Rectangle {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening preview: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decoding preview: %v", err)
	}
	return img.Bounds()
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return &Generator{Dir: t.TempDir(), Timeout: 10 * time.Second}
}

func TestImageThumbnail(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape", 1024, 512, 256, 128},
		{"portrait", 300, 600, 128, 256},
		{"thin", 2000, 4, 256, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t)
			src := filepath.Join(t.TempDir(), "photo.png")
			writeImage(t, src, tt.width, tt.height, encodePNG)

			res, err := g.Image(src, "abc")
			if err != nil {
				t.Fatalf("Image: %v", err)
			}
			if res.Path != g.Path("abc") || res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("result = %+v, want %dx%d at %s", res, tt.wantW, tt.wantH, g.Path("abc"))
			}
			if b := decodeJPEG(t, res.Path); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("written thumbnail is %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestImageSmallNeedsNoThumbnail(t *testing.T) {
	g := newTestGenerator(t)
	src := filepath.Join(t.TempDir(), "icon.png")
	writeImage(t, src, 64, 256, encodePNG)

	res, err := g.Image(src, "icon")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Path != "" {
		t.Errorf("expected no thumbnail, got %+v", res)
	}
	if _, err := os.Stat(g.Path("icon")); !os.IsNotExist(err) {
		t.Error("no file should be written")
	}
}

func TestImageNotAnImage(t *testing.T) {
	g := newTestGenerator(t)
	src := filepath.Join(t.TempDir(), "broken.png")
	os.WriteFile(src, []byte("not a png"), 0o644)

	if _, err := g.Image(src, "broken"); err == nil {
		t.Error("expected a decode error")
	}
}

func TestPrune(t *testing.T) {
	g := newTestGenerator(t)
	for _, name := range []string{"keep.jpg", "stale.jpg", "notes.txt"} {
		os.WriteFile(filepath.Join(g.Dir, name), []byte("x"), 0o644)
	}

	if err := g.Prune(map[string]bool{"keep": true}); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	for name, want := range map[string]bool{"keep.jpg": true, "stale.jpg": false, "notes.txt": true} {
		_, err := os.Stat(filepath.Join(g.Dir, name))
		if got := err == nil; got != want {
			t.Errorf("%s exists = %v, want %v", name, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{10 * time.Second, "00:10"},
		{7*time.Minute + 9*time.Second, "07:09"},
		{59*time.Minute + 59*time.Second + 900*time.Millisecond, "59:59"},
		{23*time.Hour + 7*time.Minute + 9*time.Second, "23:07:09"},
		{time.Hour, "01:00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFrameTimes(t *testing.T) {
	s := time.Second
	tests := []struct {
		d    time.Duration
		want []time.Duration
	}{
		{0, []time.Duration{0}},
		{500 * time.Millisecond, []time.Duration{0}},
		{3 * s, []time.Duration{0, s, 2 * s}},
		{5 * s, []time.Duration{0, s, 2 * s, 3 * s, 4 * s}},
		{7 * s, []time.Duration{0, 1400 * time.Millisecond, 2800 * time.Millisecond, 4200 * time.Millisecond, 5600 * time.Millisecond}},
		{20 * s, []time.Duration{2 * s, 4 * s, 8 * s, 12 * s, 16 * s}},
		{time.Hour, []time.Duration{2 * s, 12 * time.Minute, 24 * time.Minute, 36 * time.Minute, 48 * time.Minute}},
	}
	for _, tt := range tests {
		got := frameTimes(tt.d)
		if len(got) != len(tt.want) {
			t.Errorf("frameTimes(%s) = %v, want %v", tt.d, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("frameTimes(%s) = %v, want %v", tt.d, got, tt.want)
				break
			}
		}
	}
}

func TestParseFFprobe(t *testing.T) {
	out := `{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1920, "height": 1080}
		],
		"format": {"duration": "83.750000"}
	}`
	info, err := parseFFprobe([]byte(out))
	if err != nil {
		t.Fatalf("parseFFprobe: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 || info.Duration != 83*time.Second {
		t.Errorf("info = %+v", info)
	}

	if _, err := parseFFprobe([]byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"3.0"}}`)); !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("audio only: err = %v, want ErrNoVideoStream", err)
	}
	if _, err := parseFFprobe([]byte(`{"streams":[],"format":{}}`)); err == nil {
		t.Error("missing duration should fail")
	}
	if _, err := parseFFprobe([]byte(`not json`)); err == nil {
		t.Error("garbage should fail")
	}
}

// fakeTools installs shell scripts standing in for ffprobe and ffmpeg. The
// ffmpeg script appends its arguments to a log and prints frame as BMP.
func fakeTools(t *testing.T, infoJSON string, frameW, frameH int) (*Generator, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for ffmpeg")
	}
	bin := t.TempDir()
	frame := filepath.Join(bin, "frame.bmp")
	writeImage(t, frame, frameW, frameH, encodeBMP)
	calls := filepath.Join(bin, "calls.log")

	script := func(name, body string) string {
		p := filepath.Join(bin, name)
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatal(err)
		}
		return p
	}
	g := newTestGenerator(t)
	g.FFprobe = script("ffprobe", "cat <<'EOF'\n"+infoJSON+"\nEOF")
	g.FFmpeg = script("ffmpeg", `echo "$*" >> '`+calls+`'`+"\ncat '"+frame+"'")
	return g, calls
}

func TestVideoStrip(t *testing.T) {
	g, calls := fakeTools(t,
		`{"streams":[{"codec_type":"video","width":640,"height":360}],"format":{"duration":"12.4"}}`,
		640, 360)

	res, err := g.Video(context.Background(), "/videos/clip.mp4", "clip")
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	// 640x360 frames scaled to 256x144, five of them.
	if res.Width != MaxSide || res.Height != 144*fit.FramesPerStrip || res.Duration != 12*time.Second {
		t.Errorf("result = %+v", res)
	}
	if b := decodeJPEG(t, res.Path); b.Dx() != res.Width || b.Dy() != res.Height {
		t.Errorf("written strip is %dx%d", b.Dx(), b.Dy())
	}

	log, err := os.ReadFile(calls)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(log)), "\n")
	if len(lines) != fit.FramesPerStrip {
		t.Fatalf("ffmpeg ran %d times, want %d", len(lines), fit.FramesPerStrip)
	}
	for _, want := range []string{"-ss 2.000 ", "-ss 4.800 ", "-ss 9.600 "} {
		if !strings.Contains(string(log), want) {
			t.Errorf("no frame taken with %q in:\n%s", want, log)
		}
	}
	if !strings.Contains(lines[0], "-i /videos/clip.mp4") || !strings.Contains(lines[0], "-c:v bmp") {
		t.Errorf("unexpected ffmpeg arguments: %s", lines[0])
	}
}

func TestVideoShortRepeatsLastFrame(t *testing.T) {
	g, calls := fakeTools(t,
		`{"streams":[{"codec_type":"video","width":100,"height":50}],"format":{"duration":"2.9"}}`,
		100, 50)

	res, err := g.Video(context.Background(), "short.mp4", "short")
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	// Narrow frames are not upscaled.
	if res.Width != 100 || res.Height != 50*fit.FramesPerStrip || res.Duration != 2*time.Second {
		t.Errorf("result = %+v", res)
	}
	log, _ := os.ReadFile(calls)
	if n := strings.Count(string(log), "\n"); n != 2 {
		t.Errorf("ffmpeg ran %d times, want 2", n)
	}
}

func TestVideoFailures(t *testing.T) {
	g, _ := fakeTools(t, `{"streams":[{"codec_type":"audio"}],"format":{"duration":"30"}}`, 10, 10)
	if _, err := g.Video(context.Background(), "song.mp4", "song"); !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("audio only: err = %v", err)
	}

	g, _ = fakeTools(t, `{"streams":[{"codec_type":"video","width":10,"height":10}],"format":{"duration":"30"}}`, 10, 10)
	os.WriteFile(g.FFmpeg, []byte("#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n"), 0o755)
	_, err := g.Video(context.Background(), "broken.mp4", "broken")
	if err == nil || !strings.Contains(err.Error(), "moov atom not found") {
		t.Errorf("failing ffmpeg: err = %v", err)
	}
	if _, statErr := os.Stat(g.Path("broken")); !os.IsNotExist(statErr) {
		t.Error("no strip should be written when a frame fails")
	}

	none := newTestGenerator(t)
	if _, err := none.Video(context.Background(), "clip.mp4", "clip"); !errors.Is(err, ErrNoVideoTools) {
		t.Errorf("without tools: err = %v", err)
	}
}
