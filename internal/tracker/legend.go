package tracker

import (
	"image/color"

	"github.com/redqct/redqct/internal/palette"
)

// LegendEntry maps one activity name to its colour.
type LegendEntry struct {
	Name   string      `json:"name"`
	Colour palette.RGB `json:"colour"`
}

// Legend is an insertion-ordered activity name to colour mapping with
// pairwise distinct colours.
type Legend struct {
	entries []LegendEntry
	byName  map[string]int
	colours map[palette.RGB]struct{}
}

// NewLegend builds a legend from persisted entries, keeping the first
// occurrence of any duplicated name or colour.
func NewLegend(entries []LegendEntry) *Legend {
	l := &Legend{
		byName:  make(map[string]int, len(entries)),
		colours: make(map[palette.RGB]struct{}, len(entries)),
	}

	for _, e := range entries {
		if l.Has(e.Name) || l.Used(e.Colour) {
			continue
		}
		l.Add(e.Name, e.Colour)
	}

	return l
}

// Len returns the number of entries.
func (l *Legend) Len() int {
	return len(l.entries)
}

// Has reports whether name has a colour.
func (l *Legend) Has(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Used reports whether colour is already assigned.
func (l *Legend) Used(colour palette.RGB) bool {
	_, ok := l.colours[colour]
	return ok
}

// Colour returns the colour assigned to name.
func (l *Legend) Colour(name string) (palette.RGB, bool) {
	i, ok := l.byName[name]
	if !ok {
		return palette.RGB{}, false
	}
	return l.entries[i].Colour, true
}

// UnknownColour is drawn for names without a legend entry. No preset uses it.
var UnknownColour = color.NRGBA{R: 255, G: 0, B: 255, A: 255}

// ColourOf returns the colour of name as a color.Color, UnknownColour when
// name has no entry.
func (l *Legend) ColourOf(name string) color.Color {
	if c, ok := l.Colour(name); ok {
		return c
	}
	return UnknownColour
}

// Add appends name with colour and returns its index.
func (l *Legend) Add(name string, colour palette.RGB) int {
	l.entries = append(l.entries, LegendEntry{Name: name, Colour: colour})
	l.byName[name] = len(l.entries) - 1
	l.colours[colour] = struct{}{}
	return len(l.entries) - 1
}

// Clone returns an independent copy of l.
func (l *Legend) Clone() *Legend {
	return NewLegend(l.entries)
}

// Entries returns a copy of the entries in assignment order.
func (l *Legend) Entries() []LegendEntry {
	out := make([]LegendEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset removes every entry.
func (l *Legend) Reset() {
	l.entries = nil
	clear(l.byName)
	clear(l.colours)
}
