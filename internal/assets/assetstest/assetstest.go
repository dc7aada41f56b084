// Package assetstest builds an in-memory asset pack for tests.
package assetstest

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/redqct/redqct/internal/assets"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Colours used by the synthetic templates.
var (
	CardBackground  = color.NRGBA{R: 47, G: 49, B: 54, A: 255}
	GraphBackground = color.NRGBA{R: 32, G: 34, B: 37, A: 255}
	BannerShape     = color.NRGBA{R: 80, G: 80, B: 80, A: 255}
	LightOnline     = color.NRGBA{R: 67, G: 181, B: 129, A: 255}
	LightIdle       = color.NRGBA{R: 250, G: 166, B: 26, A: 255}
	LightDND        = color.NRGBA{R: 240, G: 71, B: 71, A: 255}
	LightInvisible  = color.NRGBA{R: 116, G: 127, B: 141, A: 255}
)

// BannerShapeHeight is the number of opaque rows at the top of the banner template.
const BannerShapeHeight = 100

// FontFiles are the file names WriteDir uses for the Go fonts.
var FontFiles = assets.FontFiles{
	Regular:  "regular.ttf",
	Bold:     "bold.ttf",
	Heavy:    "heavy.ttf",
	Fallback: "fallback.ttf",
}

// New returns a pack with solid-colour templates at production sizes and the Go fonts.
func New(tb testing.TB) *assets.Pack {
	tb.Helper()

	regular, err := assets.ParseFont("goregular", goregular.TTF)
	require.NoError(tb, err)
	bold, err := assets.ParseFont("gobold", gobold.TTF)
	require.NoError(tb, err)
	mono, err := assets.ParseFont("gomono", gomono.TTF)
	require.NoError(tb, err)

	return &assets.Pack{
		Member:         solid(1100, 600, CardBackground),
		Banner:         banner(),
		CustomStatus:   solid(1100, 100, CardBackground),
		Activity:       solid(1100, 335, CardBackground),
		DummyActivity:  solid(1100, 335, CardBackground),
		Graph:          solid(1920, 1080, GraphBackground),
		PfpMask:        circle(180, color.White, color.Black),
		ActivityMask:   solid(180, 180, color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		StatusMask:     circle(60, color.White, color.Black),
		StatusUnderlay: circle(69, CardBackground, color.NRGBA{}),
		LightOnline:    solid(assets.LightWidth, assets.LightHeight, LightOnline),
		LightIdle:      solid(assets.LightWidth, assets.LightHeight, LightIdle),
		LightDND:       solid(assets.LightWidth, assets.LightHeight, LightDND),
		LightInvisible: solid(assets.LightWidth, assets.LightHeight, LightInvisible),
		Regular:        regular,
		Bold:           bold,
		Heavy:          bold,
		Fallback:       mono,
	}
}

// WriteDir writes the synthetic templates and Go fonts to dir using production
// file names, returning the font directory.
func WriteDir(tb testing.TB, dir string) string {
	tb.Helper()

	files := map[string]image.Image{
		assets.MemberTemplateFile:        solid(1100, 600, CardBackground),
		assets.BannerTemplateFile:        banner(),
		assets.CustomStatusTemplateFile:  solid(1100, 100, CardBackground),
		assets.DummyActivityTemplateFile: solid(1100, 335, CardBackground),
		assets.ActivityTemplateFile:      solid(1100, 335, CardBackground),
		assets.GraphTemplateFile:         solid(1920, 1080, GraphBackground),
		assets.PfpMaskFile:               circle(180, color.White, color.Black),
		assets.ActivityMaskFile:          solid(180, 180, color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		assets.StatusMaskFile:            circle(60, color.White, color.Black),
		assets.StatusUnderlayFile:        circle(69, CardBackground, color.NRGBA{}),
		assets.LightOnlineFile:           solid(96, 94, LightOnline),
		assets.LightIdleFile:             solid(96, 94, LightIdle),
		assets.LightDNDFile:              solid(96, 94, LightDND),
		assets.LightInvisibleFile:        solid(96, 94, LightInvisible),
	}

	for name, img := range files {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(tb, err)
		require.NoError(tb, png.Encode(f, img))
		require.NoError(tb, f.Close())
	}

	fontDir := filepath.Join(dir, "fonts")
	require.NoError(tb, os.MkdirAll(fontDir, 0o755))

	fonts := map[string][]byte{
		FontFiles.Regular:  goregular.TTF,
		FontFiles.Bold:     gobold.TTF,
		FontFiles.Heavy:    gobold.TTF,
		FontFiles.Fallback: gomono.TTF,
	}
	for name, data := range fonts {
		require.NoError(tb, os.WriteFile(filepath.Join(fontDir, name), data, 0o644))
	}

	return fontDir
}

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.Color) *image.NRGBA {
	return solid(w, h, c)
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// circle draws a filled circle of diameter d in fg over bg.
func circle(d int, fg, bg color.Color) *image.NRGBA {
	img := solid(d, d, bg)
	r := float64(d) / 2

	for y := range d {
		for x := range d {
			dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, fg)
			}
		}
	}

	return img
}

func banner() *image.NRGBA {
	img := solid(1100, 150, color.NRGBA{})
	draw.Draw(img, image.Rect(0, 0, 1100, BannerShapeHeight), image.NewUniform(BannerShape), image.Point{}, draw.Src)
	return img
}
