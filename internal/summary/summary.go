// Package summary turns a persisted timeline graph into per-activity usage
// totals and renders them as a bar chart.
package summary

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/redqct/redqct/internal/graph"
	"github.com/redqct/redqct/internal/palette"
	"github.com/redqct/redqct/internal/tracker"
	"github.com/redqct/redqct/pkg/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoActivity is returned when a graph has no recorded minutes.
var ErrNoActivity = errors.New("no recorded activity")

// Chart styling.
const (
	// maxBars caps the number of activities shown.
	maxBars = 15
	// labelLength caps bar label length in characters.
	labelLength = 14

	chartHeight   = 600
	barWidth      = 60
	barSpacing    = 20
	minChartWidth = 640

	titleFontSize = 14.0
	axisFontSize  = 10.0
)

var (
	backgroundColour = drawing.Color{R: 47, G: 49, B: 54, A: 255}
	textColour       = drawing.Color{R: 255, G: 255, B: 255, A: 255}
)

// Usage is the number of minutes an activity was active.
type Usage struct {
	Name    string
	Colour  palette.RGB
	Minutes int
}

// Minutes counts, for every legend entry, the minute columns of img whose
// strip contains the entry's colour. A column counts only when its whole strip
// is made of legend colours. Results are sorted by minutes, most first.
func Minutes(img image.Image, entries []tracker.LegendEntry) []Usage {
	index := make(map[color.NRGBA]int, len(entries))
	usages := make([]Usage, len(entries))

	for i, e := range entries {
		index[color.NRGBA{R: e.Colour.R, G: e.Colour.G, B: e.Colour.B, A: 255}] = i
		usages[i] = Usage{Name: e.Name, Colour: e.Colour}
	}

	b := img.Bounds()
	seen := make(map[int]struct{}, len(entries))

	for minute := range graph.MinutesPerDay {
		x := graph.ColumnX(minute/60, minute%60)
		if x >= b.Max.X {
			break
		}

		clear(seen)
		drawn := true
		for y := graph.StripTop; y < graph.StripTop+graph.StripHeight && y < b.Max.Y; y++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[px]
			if !ok {
				drawn = false
				break
			}
			seen[i] = struct{}{}
		}

		if !drawn {
			continue
		}

		for i := range seen {
			usages[i].Minutes++
		}
	}

	slices.SortStableFunc(usages, func(a, b Usage) int {
		return cmp.Compare(b.Minutes, a.Minutes)
	})

	return usages
}

// Chart renders usages as a PNG bar chart. Activities without minutes are left out.
func Chart(title string, usages []Usage) ([]byte, error) {
	bars := make([]chart.Value, 0, maxBars)
	top := 0

	for _, u := range usages {
		if u.Minutes == 0 {
			continue
		}
		if len(bars) == maxBars {
			break
		}

		fill := drawing.Color{R: u.Colour.R, G: u.Colour.G, B: u.Colour.B, A: 255}
		bars = append(bars, chart.Value{
			Value: float64(u.Minutes),
			Label: utils.TruncateString(u.Name, labelLength, "…"),
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
				StrokeWidth: 1,
			},
		})
		top = max(top, u.Minutes)
	}

	if len(bars) == 0 {
		return nil, ErrNoActivity
	}

	barChart := chart.BarChart{
		Title:      title,
		TitleStyle: getTitleStyle(),
		Background: getBackgroundStyle(),
		Canvas:     chart.Style{FillColor: backgroundColour},
		Width:      max(minChartWidth, len(bars)*(barWidth+barSpacing)+120),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      getAxisStyle(),
		YAxis: chart.YAxis{
			Style: getAxisStyle(),
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f min", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	buf := new(bytes.Buffer)
	if err := barChart.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render usage chart: %w", err)
	}

	return buf.Bytes(), nil
}

// Total returns the sum of minutes over all usages.
func Total(usages []Usage) int {
	total := 0
	for _, u := range usages {
		total += u.Minutes
	}
	return total
}

func getTitleStyle() chart.Style {
	return chart.Style{
		FontSize:  titleFontSize,
		FontColor: textColour,
	}
}

func getBackgroundStyle() chart.Style {
	return chart.Style{
		FillColor: backgroundColour,
		Padding: chart.Box{
			Top:    40,
			Left:   20,
			Right:  20,
			Bottom: 20,
		},
	}
}

func getAxisStyle() chart.Style {
	return chart.Style{
		FontSize:  axisFontSize,
		FontColor: textColour,
	}
}
