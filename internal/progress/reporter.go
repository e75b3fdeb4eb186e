// Package progress reports indexing runs: the scan of the media folder and
// the preview generation that follows it.
package progress

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/schollz/progressbar/v3"
)

// Phase names a stage of an index run.
type Phase string

const (
	PhaseScan     Phase = "Scanning media"
	PhasePreviews Phase = "Rendering previews"
)

// Kinds of entries, as the media index names them.
const (
	KindDir   = "dir"
	KindImage = "image"
	KindVideo = "video"
)

// Entry is one file or directory handled during a phase.
type Entry struct {
	Path    string
	Kind    string
	Size    int64
	Preview bool // a strip or thumbnail is attached
	Skipped bool // over the size limit, not indexed
	Failed  bool // preview generation failed
}

// Reporter provides progress feedback while the media folder is indexed.
type Reporter interface {
	Start(phase Phase, total int)
	Update(current int, e Entry)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{Out: os.Stderr}
}

// Tally counts the entries of one phase.
type Tally struct {
	Dirs, Images, Videos, Others int
	Previews                     int
	Failed                       int
	Skipped                      int
	SkippedBytes                 int64
}

// Add counts e.
func (t *Tally) Add(e Entry) {
	switch {
	case e.Skipped:
		t.Skipped++
		t.SkippedBytes += e.Size
		return
	case e.Failed:
		t.Failed++
		return
	}
	switch e.Kind {
	case KindDir:
		t.Dirs++
	case KindImage:
		t.Images++
	case KindVideo:
		t.Videos++
	default:
		t.Others++
	}
	if e.Preview {
		t.Previews++
	}
}

// Summary renders the non-zero counts of a phase, e.g.
// "12 videos, 3 images, 9 strips or thumbnails, 1 file skipped (4.2 GB over the size limit)".
func (t Tally) Summary(phase Phase) string {
	var parts []string
	add := func(n int, singular, plural string) {
		if n > 0 {
			parts = append(parts, english.Plural(n, singular, plural))
		}
	}
	if phase == PhasePreviews {
		add(t.Previews, "preview rendered", "previews rendered")
		add(t.Failed, "preview failed", "previews failed")
	} else {
		add(t.Videos, "video", "")
		add(t.Images, "image", "")
		add(t.Others, "other file", "")
		add(t.Dirs, "directory", "directories")
		add(t.Previews, "strip or thumbnail", "strips or thumbnails")
	}
	if t.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%s skipped (%s over the size limit)",
			english.Plural(t.Skipped, "file", ""), humanize.Bytes(uint64(t.SkippedBytes))))
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	Out   io.Writer
	bar   *progressbar.ProgressBar
	phase Phase
	tally Tally
}

func (r *TerminalReporter) Start(phase Phase, total int) {
	r.phase, r.tally = phase, Tally{}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(string(phase)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, e Entry) {
	r.tally.Add(e)
	if r.bar != nil {
		r.bar.Describe(fmt.Sprintf("%s: %s", r.phase, path.Base(e.Path)))
		_ = r.bar.Set(current)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintf(r.Out, "%s: %s\n", r.phase, r.tally.Summary(r.phase))
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Out   io.Writer
	phase Phase
	total int
	tally Tally
}

func (r *CIReporter) Start(phase Phase, total int) {
	r.phase, r.total, r.tally = phase, total, Tally{}
	fmt.Fprintf(r.Out, "%s: %s\n", phase, english.Plural(total, "entry", "entries"))
}

func (r *CIReporter) Update(current int, e Entry) {
	r.tally.Add(e)
	note := ""
	switch {
	case e.Skipped:
		note = fmt.Sprintf(" skipped, %s over the size limit", humanize.Bytes(uint64(e.Size)))
	case e.Failed:
		note = " preview failed"
	case e.Preview:
		note = " with preview"
	}
	fmt.Fprintf(r.Out, "[%d/%d] %s%s\n", current, r.total, e.Path, note)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.Out, "%s done: %s\n", r.phase, r.tally.Summary(r.phase))
}

// Nop discards progress. Used by background rescans.
type Nop struct{}

func (Nop) Start(Phase, int)  {}
func (Nop) Update(int, Entry) {}
func (Nop) Finish()           {}
