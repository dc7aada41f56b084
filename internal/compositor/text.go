package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// FallbackRise is how far fallback glyphs are lifted to line up with the preferred font.
const FallbackRise = 4

// GlyphSet reports whether a font maps a code point to a real glyph.
type GlyphSet interface {
	HasGlyph(r rune) bool
}

// FontPair is a preferred face plus the face used for characters it cannot render.
type FontPair struct {
	Preferred font.Face
	Fallback  font.Face
	// Glyphs is the preferred font's character map. Nil means every character
	// uses the preferred face.
	Glyphs GlyphSet
}

// pick returns the face for r and the vertical shift to apply.
func (p FontPair) pick(r rune) (font.Face, int) {
	if p.Fallback == nil || p.Glyphs == nil || p.Glyphs.HasGlyph(r) {
		return p.Preferred, 0
	}
	return p.Fallback, -FallbackRise
}

// DrawText renders line one character at a time, choosing the preferred or the
// fallback face per character. start is the top-left corner of the text. The
// returned width lets callers chain several runs horizontally.
func DrawText(dst draw.Image, line string, col color.Color, start image.Point, pair FontPair) int {
	src := image.NewUniform(col)
	offset := 0

	for _, r := range line {
		face, shift := pair.pick(r)
		ch := string(r)

		d := &font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(start.X + offset),
				Y: fixed.I(start.Y+shift) + face.Metrics().Ascent,
			},
		}
		d.DrawString(ch)

		offset += advance(face, ch)
	}

	return offset
}

// MeasureText returns the width DrawText would report for line without drawing.
func MeasureText(line string, pair FontPair) int {
	width := 0
	for _, r := range line {
		face, _ := pair.pick(r)
		width += advance(face, string(r))
	}
	return width
}

func advance(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}
