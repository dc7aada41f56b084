// Package compositor layers sub-images and text onto template canvases and
// stitches finished canvases together.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
)

var (
	// ErrNoPieces is returned when Stitch is called without any pieces.
	ErrNoPieces = errors.New("no pieces to stitch")
	// ErrWidthMismatch is returned when stitched pieces differ in width.
	ErrWidthMismatch = errors.New("pieces differ in width")
)

// transparent is a fully transparent pixel.
var transparent = color.NRGBA{}

// Canvas is an editable RGBA copy of a template. A canvas has a single owner
// and is mutated in place by the drawing helpers.
type Canvas struct {
	img *image.NRGBA
}

// NewCanvas alpha-composites template onto a transparent layer of the same size
// so later pastes respect per-pixel alpha.
func NewCanvas(template image.Image) *Canvas {
	b := template.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), template, b.Min, draw.Over)
	return &Canvas{img: img}
}

// NewBlank creates a canvas of the given size filled with fill.
func NewBlank(width, height int, fill color.Color) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return &Canvas{img: img}
}

// Wrap adopts an existing image as a canvas without copying it.
func Wrap(img *image.NRGBA) *Canvas {
	return &Canvas{img: img}
}

// Image returns the underlying image.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Bounds returns the canvas bounds.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Draw pastes src with its top-left corner at at, using src's own alpha as the mask.
func (c *Canvas) Draw(src image.Image, at image.Point) {
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(c.img, r, src, sb.Min, draw.Over)
}

// Fill overwrites rect with an opaque or translucent colour, ignoring what was there.
func (c *Canvas) Fill(rect image.Rectangle, col color.Color) {
	draw.Draw(c.img, rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// Text renders line at start (top-left of the text) and returns its width in pixels.
func (c *Canvas) Text(line string, col color.Color, start image.Point, pair FontPair) int {
	return DrawText(c.img, line, col, start, pair)
}

// Masked resizes img to the mask's dimensions and keeps only the part covered by
// the mask's luminance. Aspect ratio is not preserved.
func Masked(img, mask image.Image) *image.NRGBA {
	mb := mask.Bounds()
	resized := imaging.Resize(img, mb.Dx(), mb.Dy(), imaging.Lanczos)

	// Luminance becomes coverage: white keeps the pixel, black drops it.
	coverage := image.NewAlpha(image.Rect(0, 0, mb.Dx(), mb.Dy()))
	for y := range mb.Dy() {
		for x := range mb.Dx() {
			gray := color.GrayModel.Convert(mask.At(mb.Min.X+x, mb.Min.Y+y)).(color.Gray)
			coverage.SetAlpha(x, y, color.Alpha{A: gray.Y})
		}
	}

	out := image.NewNRGBA(coverage.Bounds())
	draw.DrawMask(out, out.Bounds(), resized, image.Point{}, coverage, image.Point{}, draw.Over)
	return out
}

// Tint recolours every pixel of img that is not fully transparent black to col
// with full opacity.
func Tint(img image.Image, col color.Color) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	target := color.NRGBAModel.Convert(col).(color.NRGBA)
	target.A = 0xff

	for y := range b.Dy() {
		for x := range b.Dx() {
			px := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if px == transparent {
				continue
			}
			out.SetNRGBA(x, y, target)
		}
	}

	return out
}

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Stitch stacks pieces top to bottom, without gaps, on a white background.
// All pieces must share the same width.
func Stitch(pieces ...image.Image) (*image.NRGBA, error) {
	if len(pieces) == 0 {
		return nil, ErrNoPieces
	}

	width := pieces[0].Bounds().Dx()
	height := 0

	for i, p := range pieces {
		if w := p.Bounds().Dx(); w != width {
			return nil, fmt.Errorf("%w: piece %d is %dpx wide, expected %dpx", ErrWidthMismatch, i, w, width)
		}
		height += p.Bounds().Dy()
	}

	out := NewBlank(width, height, color.White)
	y := 0

	for _, p := range pieces {
		out.Draw(p, image.Pt(0, y))
		y += p.Bounds().Dy()
	}

	return out.img, nil
}

// ExtendRight returns a copy of img with panel appended on its right edge.
// Both images must have the same height.
func ExtendRight(img, panel image.Image) *image.NRGBA {
	ib, pb := img.Bounds(), panel.Bounds()
	out := NewBlank(ib.Dx()+pb.Dx(), ib.Dy(), color.White)
	draw.Draw(out.img, image.Rect(0, 0, ib.Dx(), ib.Dy()), img, ib.Min, draw.Src)
	draw.Draw(out.img, image.Rect(ib.Dx(), 0, ib.Dx()+pb.Dx(), pb.Dy()), panel, pb.Min, draw.Src)
	return out.img
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
