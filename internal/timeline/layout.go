package timeline

import "unicode/utf8"

// Entry is one career or education record.
type Entry struct {
	Title    string   `yaml:"title"`
	Subtitle string   `yaml:"subtitle"`
	Period   string   `yaml:"period"`
	Color    string   `yaml:"color"`
	Details  []string `yaml:"details"`
}

// Colors maps the supported entry categories to their text and marker classes.
var Colors = map[string]struct{ Text, Marker string }{
	"green":  {"text-green-400", "bg-green-400"},
	"blue":   {"text-blue-400", "bg-blue-400"},
	"purple": {"text-purple-400", "bg-purple-400"},
	"teal":   {"text-teal-400", "bg-teal-400"},
	"orange": {"text-orange-400", "bg-orange-400"},
	"red":    {"text-red-400", "bg-red-400"},
	"yellow": {"text-yellow-400", "bg-yellow-400"},
	"gray":   {"text-gray-400", "bg-gray-400"},
}

// Pixel metrics of the rendered entry card at the desktop breakpoint.
const (
	cardChrome     = 50 // p-6 padding plus borders
	titleHeight    = 28
	subtitleHeight = 24
	periodHeight   = 24
	detailLine     = 20
	detailGap      = 4
	entryGap       = 32
	detailColumns  = 78
)

// EstimatedLayout predicts the geometry of entries stacked down the track
// from their text alone. The server uses it for the first render, before
// the browser has reported real measurements.
type EstimatedLayout struct {
	Entries []Entry
}

func (l EstimatedLayout) Track() (Rect, bool) {
	return Rect{Top: 0, Height: l.height()}, true
}

func (l EstimatedLayout) Entry(i int) (Rect, bool) {
	if i < 0 || i >= len(l.Entries) {
		return Rect{}, false
	}
	top := 0.0
	for j := 0; j < i; j++ {
		top += entryHeight(l.Entries[j]) + entryGap
	}
	return Rect{Top: top, Height: entryHeight(l.Entries[i])}, true
}

func (l EstimatedLayout) Len() int { return len(l.Entries) }

func (l EstimatedLayout) height() float64 {
	total := 0.0
	for i, e := range l.Entries {
		if i > 0 {
			total += entryGap
		}
		total += entryHeight(e)
	}
	return total
}

func entryHeight(e Entry) float64 {
	h := float64(cardChrome + titleHeight + subtitleHeight + periodHeight)
	for i, d := range e.Details {
		if i > 0 {
			h += detailGap
		}
		h += float64(wrappedLines(d, detailColumns) * detailLine)
	}
	return h
}

func wrappedLines(s string, columns int) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 1
	}
	return (n + columns - 1) / columns
}
