package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestTallySummary(t *testing.T) {
	tests := []struct {
		name    string
		phase   Phase
		entries []Entry
		want    string
	}{
		{
			name:  "scan",
			phase: PhaseScan,
			entries: []Entry{
				{Path: "trips", Kind: KindDir},
				{Path: "trips/a.mp4", Kind: KindVideo, Preview: true},
				{Path: "trips/b.mp4", Kind: KindVideo},
				{Path: "cover.png", Kind: KindImage},
				{Path: "notes.txt", Kind: "other"},
				{Path: "raw.mov", Kind: KindVideo, Size: 3_000_000_000, Skipped: true},
			},
			want: "2 videos, 1 image, 1 other file, 1 directory, 1 strip or thumbnail, 1 file skipped (3.0 GB over the size limit)",
		},
		{
			name:  "previews",
			phase: PhasePreviews,
			entries: []Entry{
				{Path: "a.mp4", Kind: KindVideo, Preview: true},
				{Path: "b.jpg", Kind: KindImage, Preview: true},
				{Path: "c.mp4", Kind: KindVideo, Failed: true},
			},
			want: "2 previews rendered, 1 preview failed",
		},
		{
			name:  "empty",
			phase: PhaseScan,
			want:  "nothing to do",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tally Tally
			for _, e := range tt.entries {
				tally.Add(e)
			}
			if got := tally.Summary(tt.phase); got != tt.want {
				t.Errorf("Summary() = %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestCIReporter(t *testing.T) {
	var out bytes.Buffer
	r := &CIReporter{Out: &out}

	r.Start(PhaseScan, 3)
	r.Update(1, Entry{Path: "clips/night.mp4", Kind: KindVideo, Preview: true})
	r.Update(2, Entry{Path: "clips/raw.mov", Kind: KindVideo, Size: 2048, Skipped: true})
	r.Update(3, Entry{Path: "clips", Kind: KindDir})
	r.Finish()

	// A second phase starts from zero.
	r.Start(PhasePreviews, 1)
	r.Update(1, Entry{Path: "clips/day.mp4", Kind: KindVideo, Failed: true})
	r.Finish()

	got := out.String()
	for _, want := range []string{
		"Scanning media: 3 entries\n",
		"[1/3] clips/night.mp4 with preview\n",
		"[2/3] clips/raw.mov skipped, 2.0 kB over the size limit\n",
		"[3/3] clips\n",
		"Scanning media done: 1 video, 1 directory, 1 strip or thumbnail, 1 file skipped (2.0 kB over the size limit)\n",
		"Rendering previews: 1 entry\n",
		"[1/1] clips/day.mp4 preview failed\n",
		"Rendering previews done: 1 preview failed\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q in:\n%s", want, got)
		}
	}
}

func TestTerminalReporterPrintsSummary(t *testing.T) {
	var out bytes.Buffer
	r := &TerminalReporter{Out: &out}

	r.Start(PhaseScan, 2)
	r.Update(1, Entry{Path: "a/b/cover.png", Kind: KindImage, Preview: true})
	r.Update(2, Entry{Path: "a/b/huge.mkv", Kind: KindVideo, Size: 5000, Skipped: true})
	r.Finish()

	want := "Scanning media: 1 image, 1 strip or thumbnail, 1 file skipped (5.0 kB over the size limit)\n"
	if !strings.HasSuffix(out.String(), want) {
		t.Errorf("output ends with %q, want %q", out.String(), want)
	}
}
