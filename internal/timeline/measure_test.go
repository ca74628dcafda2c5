package timeline

import (
	"strings"
	"testing"
)

func rect(top, height float64) *Rect { return &Rect{Top: top, Height: height} }

func TestMeasureCentersEntries(t *testing.T) {
	var m Measurer
	ok := m.Measure(MeasuredLayout{
		TrackRect: rect(100, 400),
		Entries:   []*Rect{rect(120, 40), rect(170, 60)},
	})
	if !ok {
		t.Fatal("Measure returned false with a track present")
	}

	got := m.Offsets()
	want := []float64{40, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %d offsets, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMeasureZeroEntries(t *testing.T) {
	var m Measurer
	if !m.Measure(MeasuredLayout{TrackRect: rect(0, 10)}) {
		t.Fatal("Measure returned false")
	}
	got := m.Offsets()
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil offsets, got %#v", got)
	}
}

func TestMeasureMissingTrackKeepsPreviousOffsets(t *testing.T) {
	var m Measurer
	if m.Measure(MeasuredLayout{Entries: []*Rect{rect(0, 10)}}) {
		t.Error("Measure should report false without a track")
	}
	if m.Offsets() != nil {
		t.Errorf("expected no offsets before first measurement, got %v", m.Offsets())
	}

	m.Measure(MeasuredLayout{TrackRect: rect(0, 100), Entries: []*Rect{rect(10, 20)}})
	m.Measure(MeasuredLayout{Entries: []*Rect{rect(500, 500)}})

	if off, ok := m.Offset(0); !ok || off != 20 {
		t.Errorf("offset[0] = %v, %v; want 20, true", off, ok)
	}
}

func TestMeasureMissingEntryDefaultsToZero(t *testing.T) {
	var m Measurer
	m.Measure(MeasuredLayout{
		TrackRect: rect(50, 300),
		Entries:   []*Rect{rect(60, 20), nil, rect(150, 50)},
	})

	got := m.Offsets()
	want := []float64{20, 0, 125}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMeasureIsIdempotent(t *testing.T) {
	var m Measurer
	l := MeasuredLayout{TrackRect: rect(0, 100), Entries: []*Rect{rect(10, 10), rect(40, 30)}}
	m.Measure(l)
	first := m.Offsets()
	m.Measure(l)
	second := m.Offsets()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("offset[%d] changed from %v to %v", i, first[i], second[i])
		}
	}
}

func TestOffsetOutOfRange(t *testing.T) {
	var m Measurer
	if _, ok := m.Offset(0); ok {
		t.Error("unmeasured offset should be absent")
	}
	m.Measure(MeasuredLayout{TrackRect: rect(0, 0), Entries: []*Rect{rect(0, 0)}})
	if _, ok := m.Offset(1); ok {
		t.Error("offset past the end should be absent")
	}
	if _, ok := m.Offset(-1); ok {
		t.Error("negative offset should be absent")
	}
}

func TestEstimatedLayoutStacksEntries(t *testing.T) {
	entries := []Entry{
		{Title: "A", Details: []string{"short"}},
		{Title: "B", Details: []string{strings.Repeat("x", detailColumns+1), "second"}},
		{Title: "C"},
	}
	l := EstimatedLayout{Entries: entries}

	var m Measurer
	if !m.Measure(l) {
		t.Fatal("estimated layout always has a track")
	}
	got := m.Offsets()
	if len(got) != 3 {
		t.Fatalf("expected 3 offsets, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("offsets not increasing: %v", got)
		}
	}

	first, _ := l.Entry(0)
	if got[0] != first.Height/2 {
		t.Errorf("first offset = %v, want half the first height %v", got[0], first.Height/2)
	}

	second, _ := l.Entry(1)
	wantHeight := float64(cardChrome+titleHeight+subtitleHeight+periodHeight) + 2*detailLine + detailGap + detailLine
	if second.Height != wantHeight {
		t.Errorf("wrapped entry height = %v, want %v", second.Height, wantHeight)
	}
	if second.Top != first.Height+entryGap {
		t.Errorf("second top = %v, want %v", second.Top, first.Height+entryGap)
	}
}
