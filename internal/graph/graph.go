// Package graph draws the per-user daily activity timeline: the titled empty
// graph, the legend grid with its side panels, and one-minute activity columns.
package graph

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"time"

	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/compositor"
)

// Graph geometry in pixels.
const (
	Height          = 1080
	PanelWidth      = 430
	LegendRows      = 13
	StripTop        = 174
	StripHeight     = 800
	LeftMargin      = 49
	MinutesPerDay   = 24 * 60
	LegendLeft      = 1510
	LegendTop       = 177
	LegendRowHeight = 61
	SwatchSize      = 30
	LegendTextGap   = 44
	LegendTextRise  = 3
	LegendTextWidth = 335
)

// Ellipsis replaces the tail of legend names that do not fit.
const Ellipsis = "…"

var (
	// PanelColour fills the side panels added for extra legend columns.
	PanelColour = color.NRGBA{R: 41, G: 43, B: 47, A: 255}

	white   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	tagGrey = color.NRGBA{R: 167, G: 169, B: 172, A: 255}
)

// Renderer draws text-bearing graph elements with the asset pack's fonts.
type Renderer struct {
	pack *assets.Pack
}

// NewRenderer creates a Renderer backed by pack.
func NewRenderer(pack *assets.Pack) *Renderer {
	return &Renderer{pack: pack}
}

// Empty fills the graph template with the owner's name, tag, local date and timezone.
func (r *Renderer) Empty(name, tag string, date time.Time, hOffset, mOffset int) (*image.NRGBA, error) {
	ts, err := r.pack.Typeset()
	if err != nil {
		return nil, err
	}

	c := compositor.NewCanvas(r.pack.Graph)

	x := 46
	x += c.Text(name, white, image.Pt(x, 45), ts.Bold40)
	if tag != "" {
		x += c.Text("#"+tag, tagGrey, image.Pt(x, 45), ts.Bold40)
	}
	c.Text("'s", white, image.Pt(x, 45), ts.Bold40)

	subtitle := fmt.Sprintf("Activity Graph (%d %s %d / %s)",
		date.Day(), date.Month(), date.Year(), TimezoneLabel(hOffset, mOffset))
	c.Text(subtitle, white, image.Pt(46, 105), ts.Bold40)

	return c.Image(), nil
}

// TimezoneLabel formats an offset as "UTC", "UTC + 5", "UTC + 5:30", "UTC - 0:30" and so on.
func TimezoneLabel(h, m int) string {
	switch {
	case h == 0 && m == 0:
		return "UTC"
	case h < 0 || (h == 0 && m < 0):
		return formatOffset("-", -h, -m)
	default:
		return formatOffset("+", h, m)
	}
}

func formatOffset(sign string, h, m int) string {
	if m == 0 {
		return fmt.Sprintf("UTC %s %d", sign, h)
	}
	return fmt.Sprintf("UTC %s %d:%02d", sign, h, m)
}

// ExtendLegend appends one side panel for another legend column.
func ExtendLegend(img image.Image) *image.NRGBA {
	panel := compositor.NewBlank(PanelWidth, img.Bounds().Dy(), PanelColour)
	return compositor.ExtendRight(img, panel.Image())
}

// NeedsPanel reports whether legend entry e starts a column that does not fit yet.
func NeedsPanel(e int) bool {
	return e > 0 && e%LegendRows == 0
}

// LegendCell returns the column-major grid cell of legend entry e.
func LegendCell(e int) (col, row int) {
	return e / LegendRows, e % LegendRows
}

// LegendOrigin returns the swatch position of legend entry e.
func LegendOrigin(e int) image.Point {
	col, row := LegendCell(e)
	return image.Pt(LegendLeft+col*PanelWidth, LegendTop+row*LegendRowHeight)
}

// DrawLegendEntry draws a colour swatch at origin followed by text elided to fit
// the legend column.
func (r *Renderer) DrawLegendEntry(img *image.NRGBA, colour color.Color, text string, origin image.Point) error {
	ts, err := r.pack.Typeset()
	if err != nil {
		return err
	}

	c := compositor.Wrap(img)
	c.Fill(image.Rect(origin.X, origin.Y, origin.X+SwatchSize, origin.Y+SwatchSize), colour)

	text = Elide(text, ts.Bold30, LegendTextWidth)
	c.Text(text, white, image.Pt(origin.X+LegendTextGap, origin.Y-LegendTextRise), ts.Bold30)

	return nil
}

// Elide shortens text until it is at most budget pixels wide. The last character
// is swapped for an ellipsis once, then characters before the ellipsis are dropped.
func Elide(text string, pair compositor.FontPair, budget int) string {
	runes := []rune(text)
	cut := false

	for len(runes) > 0 && compositor.MeasureText(string(runes), pair) > budget {
		if !cut {
			runes = append(runes[:len(runes)-1], []rune(Ellipsis)...)
			cut = true
			continue
		}

		if len(runes) < 2 {
			break
		}
		runes = append(runes[:len(runes)-2], runes[len(runes)-1])
	}

	return string(runes)
}

// ColumnX returns the x coordinate of the strip for a local hour and minute.
func ColumnX(hour, minute int) int {
	return LeftMargin + hour*60 + minute
}

// BandHeights splits the strip into exactly k bands. Each band is StripHeight/k
// tall and the remainder goes one pixel at a time to the earliest bands.
func BandHeights(k int) []int {
	if k <= 0 {
		return nil
	}

	base, rem := StripHeight/k, StripHeight%k
	heights := make([]int, k)

	for i := range heights {
		heights[i] = base
		if i < rem {
			heights[i]++
		}
	}

	return heights
}

// DrawMinute paints the 1px strip at x with one band per active name, in
// lexicographic order. colourOf must know every name.
func DrawMinute(img *image.NRGBA, names []string, colourOf func(string) color.Color, x int) {
	if len(names) == 0 {
		return
	}

	sorted := slices.Clone(names)
	slices.Sort(sorted)

	c := compositor.Wrap(img)
	y := StripTop

	for i, h := range BandHeights(len(sorted)) {
		c.Fill(image.Rect(x, y, x+1, y+h), colourOf(sorted[i]))
		y += h
	}
}
