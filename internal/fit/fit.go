// Package fit sizes filmstrip previews so that exactly one frame fills the
// tile it sits in.
//
// A preview strip is a single image holding FramesPerStrip equally tall
// frames stacked vertically. The browser scrolls through them on hover; only
// one is visible at a time, so the display box must match one frame's aspect
// ratio, never the whole strip's.
package fit

import (
	"fmt"
	"strconv"
	"strings"
)

// FramesPerStrip is the number of stacked frames in every preview strip.
const FramesPerStrip = 5

// Size is a width/height pair in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// ParseSize reads "WIDTHxHEIGHT".
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return Size{}, fmt.Errorf("parsing size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return Size{}, fmt.Errorf("parsing width of %q: %w", s, err)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return Size{}, fmt.Errorf("parsing height of %q: %w", s, err)
	}
	return Size{Width: width, Height: height}, nil
}

// Result is the computed display box plus the right offset of the overlay
// badge that sits over the visible frame.
type Result struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	OverlayRight float64 `json:"overlay_right"`
}

// Compute fits one frame of a strip with the given intrinsic size into the
// container. The box never exceeds the container; a zero-sized container
// yields non-finite values.
func Compute(natural, container Size) Result {
	frameHeight := natural.Height / FramesPerStrip
	widthScale := container.Width / natural.Width

	width := container.Width
	height := frameHeight * widthScale

	if height > container.Height {
		width *= container.Height / height
		height = container.Height
	}

	return Result{
		Width:        width,
		Height:       height,
		OverlayRight: (container.Width - width) / 2,
	}
}
