package compositor_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/redqct/redqct/internal/compositor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// latinOnly claims glyphs for ASCII only.
type latinOnly struct{}

func (latinOnly) HasGlyph(r rune) bool { return r < 0x80 }

func face(t *testing.T, data []byte, size float64) font.Face {
	t.Helper()

	f, err := opentype.Parse(data)
	require.NoError(t, err)

	fc, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	require.NoError(t, err)
	return fc
}

func testPair(t *testing.T) compositor.FontPair {
	t.Helper()

	return compositor.FontPair{
		Preferred: face(t, goregular.TTF, 30),
		Fallback:  face(t, gomono.TTF, 30),
		Glyphs:    latinOnly{},
	}
}

func TestDrawTextReturnsWidth(t *testing.T) {
	t.Parallel()

	pair := testPair(t)
	dst := image.NewNRGBA(image.Rect(0, 0, 400, 60))

	width := compositor.DrawText(dst, "hello", color.White, image.Pt(0, 0), pair)

	expected := 0
	for _, r := range "hello" {
		expected += font.MeasureString(pair.Preferred, string(r)).Ceil()
	}

	assert.Equal(t, expected, width)
	assert.Equal(t, width, compositor.MeasureText("hello", pair))

	drawn := false
	for x := range width {
		for y := range 60 {
			if dst.NRGBAAt(x, y).A != 0 {
				drawn = true
			}
		}
	}
	assert.True(t, drawn, "text should leave pixels on the canvas")
}

func TestDrawTextFallsBackPerCharacter(t *testing.T) {
	t.Parallel()

	pair := testPair(t)
	line := "a原b"

	expected := font.MeasureString(pair.Preferred, "a").Ceil() +
		font.MeasureString(pair.Fallback, "原").Ceil() +
		font.MeasureString(pair.Preferred, "b").Ceil()

	assert.Equal(t, expected, compositor.MeasureText(line, pair))

	dst := image.NewNRGBA(image.Rect(0, 0, 300, 60))
	assert.Equal(t, expected, compositor.DrawText(dst, line, color.White, image.Pt(0, 10), pair))
}

func TestDrawTextWithoutGlyphSetUsesPreferred(t *testing.T) {
	t.Parallel()

	pair := testPair(t)
	pair.Glyphs = nil

	expected := font.MeasureString(pair.Preferred, "原").Ceil()
	assert.Equal(t, expected, compositor.MeasureText("原", pair))
}

func TestDrawTextChains(t *testing.T) {
	t.Parallel()

	pair := testPair(t)
	dst := image.NewNRGBA(image.Rect(0, 0, 600, 60))

	offset := compositor.DrawText(dst, "name", color.White, image.Pt(10, 0), pair)
	tag := compositor.DrawText(dst, "#0001", color.NRGBA{R: 167, G: 169, B: 172, A: 255}, image.Pt(10+offset, 0), pair)

	assert.Equal(t, compositor.MeasureText("name#0001", pair), offset+tag)
}
