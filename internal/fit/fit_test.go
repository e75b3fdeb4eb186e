package fit

import (
	"math"
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		natural   Size
		container Size
		want      Result
	}{
		{
			name:      "fits by width",
			natural:   Size{500, 1000},
			container: Size{300, 300},
			want:      Result{Width: 300, Height: 120, OverlayRight: 0},
		},
		{
			name:      "clamped by height",
			natural:   Size{100, 2000},
			container: Size{100, 100},
			want:      Result{Width: 25, Height: 100, OverlayRight: 37.5},
		},
		{
			name:      "exactly container height",
			natural:   Size{200, 500},
			container: Size{200, 100},
			want:      Result{Width: 200, Height: 100, OverlayRight: 0},
		},
		{
			name:      "wide tile tall frame",
			natural:   Size{320, 1200},
			container: Size{240, 180},
			want:      Result{Width: 240, Height: 180, OverlayRight: 0},
		},
	}
	for _, tt := range tests {
		got := Compute(tt.natural, tt.container)
		if !closeTo(got.Width, tt.want.Width) || !closeTo(got.Height, tt.want.Height) || !closeTo(got.OverlayRight, tt.want.OverlayRight) {
			t.Errorf("%s: Compute(%s, %s) = %+v, want %+v", tt.name, tt.natural, tt.container, got, tt.want)
		}
	}
}

func TestComputeNeverExceedsContainer(t *testing.T) {
	naturals := []Size{{100, 100}, {1920, 5400}, {640, 10000}, {3000, 500}}
	containers := []Size{{96, 72}, {240, 180}, {480, 360}, {1000, 50}}
	for _, n := range naturals {
		for _, c := range containers {
			r := Compute(n, c)
			if r.Width > c.Width+1e-9 || r.Height > c.Height+1e-9 {
				t.Errorf("Compute(%s, %s) = %+v exceeds container", n, c, r)
			}
			frameRatio := n.Width / (n.Height / FramesPerStrip)
			if !closeTo(r.Width/r.Height, frameRatio) {
				t.Errorf("Compute(%s, %s) ratio %g, want %g", n, c, r.Width/r.Height, frameRatio)
			}
		}
	}
}

func TestComputeZeroContainer(t *testing.T) {
	r := Compute(Size{500, 1000}, Size{0, 0})
	if r.Width != 0 {
		t.Errorf("zero-width container: width = %g, want 0", r.Width)
	}

	r = Compute(Size{0, 0}, Size{300, 300})
	if !math.IsNaN(r.Height) && !math.IsInf(r.Height, 0) {
		t.Errorf("zero natural size should be non-finite, got %+v", r)
	}
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("500x1000")
	if err != nil {
		t.Fatalf("ParseSize: %v", err)
	}
	if s.Width != 500 || s.Height != 1000 {
		t.Errorf("ParseSize = %+v", s)
	}
	if s.String() != "500x1000" {
		t.Errorf("String() = %q", s.String())
	}
	if _, err := ParseSize("wide"); err == nil {
		t.Error("expected error for malformed size")
	}
}

type fakeView struct {
	natural   map[string]Size
	container Size
	applied   map[string]Result
}

func (f *fakeView) Resolve(id string) (Size, Size, bool) {
	n, ok := f.natural[id]
	return n, f.container, ok
}

func (f *fakeView) Apply(id string, r Result) {
	f.applied[id] = r
}

func TestCalculator(t *testing.T) {
	v := &fakeView{
		natural:   map[string]Size{"a": {500, 1000}, "b": {100, 2000}},
		container: Size{300, 300},
		applied:   map[string]Result{},
	}
	c := &Calculator{Resolver: v, Applier: v}

	c.ComputeFit("missing")
	if len(v.applied) != 0 {
		t.Fatalf("missing element mutated view: %v", v.applied)
	}

	c.ComputeAll([]string{"a", "missing", "b"})
	if len(v.applied) != 2 {
		t.Fatalf("expected 2 applied fits, got %d", len(v.applied))
	}
	if got := v.applied["a"]; got.Width != 300 || got.Height != 120 {
		t.Errorf("a = %+v", got)
	}
	if got := v.applied["b"]; got.Height != 300 || !closeTo(got.Width, 75) {
		t.Errorf("b = %+v", got)
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
