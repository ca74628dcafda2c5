// Package timeline positions the career timeline markers so each one sits
// level with the vertical center of its entry.
package timeline

import "sync"

// Rect is the vertical extent of a rendered element.
type Rect struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Layout exposes post-layout geometry. Track and Entry report false when
// the element is not present in the rendered tree.
type Layout interface {
	Track() (Rect, bool)
	Entry(i int) (Rect, bool)
	Len() int
}

// Measurer owns the marker offsets for one timeline. It is the only
// writer; readers get copies.
type Measurer struct {
	mu      sync.RWMutex
	offsets []float64
}

// Measure recomputes every offset from l. When the track is missing the
// previous offsets are left as they were and Measure returns false.
func (m *Measurer) Measure(l Layout) bool {
	track, ok := l.Track()
	if !ok {
		return false
	}

	offsets := make([]float64, l.Len())
	for i := range offsets {
		entry, ok := l.Entry(i)
		if !ok {
			continue
		}
		offsets[i] = (entry.Top - track.Top) + entry.Height/2
	}

	m.mu.Lock()
	m.offsets = offsets
	m.mu.Unlock()
	return true
}

// Offsets returns a copy of the last measurement, nil if none happened yet.
func (m *Measurer) Offsets() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offsets == nil {
		return nil
	}
	out := make([]float64, len(m.offsets))
	copy(out, m.offsets)
	return out
}

// Offset returns the offset for entry i, or false if it has not been measured.
func (m *Measurer) Offset(i int) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.offsets) {
		return 0, false
	}
	return m.offsets[i], true
}

// MeasuredLayout is geometry reported by the browser. A nil entry is an
// element that was not rendered.
type MeasuredLayout struct {
	TrackRect *Rect   `json:"track"`
	Entries   []*Rect `json:"entries"`
}

func (l MeasuredLayout) Track() (Rect, bool) {
	if l.TrackRect == nil {
		return Rect{}, false
	}
	return *l.TrackRect, true
}

func (l MeasuredLayout) Entry(i int) (Rect, bool) {
	if i < 0 || i >= len(l.Entries) || l.Entries[i] == nil {
		return Rect{}, false
	}
	return *l.Entries[i], true
}

func (l MeasuredLayout) Len() int { return len(l.Entries) }
