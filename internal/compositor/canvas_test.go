package compositor_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/redqct/redqct/internal/compositor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewCanvasCopiesTemplate(t *testing.T) {
	t.Parallel()

	tmpl := uniform(4, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	c := compositor.NewCanvas(tmpl)

	assert.Equal(t, image.Rect(0, 0, 4, 3), c.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, c.Image().NRGBAAt(3, 2))

	// The canvas is a copy, not an alias.
	c.Fill(image.Rect(0, 0, 1, 1), color.NRGBA{A: 255})
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, tmpl.NRGBAAt(0, 0))
}

func TestDrawRespectsAlpha(t *testing.T) {
	t.Parallel()

	c := compositor.NewCanvas(uniform(4, 4, color.NRGBA{R: 255, A: 255}))

	sub := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	sub.SetNRGBA(0, 0, color.NRGBA{B: 255, A: 255})
	sub.SetNRGBA(1, 0, color.NRGBA{}) // fully transparent pixel leaves canvas untouched

	c.Draw(sub, image.Pt(1, 1))

	assert.Equal(t, color.NRGBA{B: 255, A: 255}, c.Image().NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c.Image().NRGBAAt(2, 1))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c.Image().NRGBAAt(0, 0))
}

func TestMasked(t *testing.T) {
	t.Parallel()

	img := uniform(10, 10, color.NRGBA{G: 200, A: 255})

	mask := image.NewGray(image.Rect(0, 0, 4, 2))
	mask.SetGray(0, 0, color.Gray{Y: 255})
	mask.SetGray(1, 0, color.Gray{Y: 0})

	out := compositor.Masked(img, mask)

	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds(), "output takes the mask's size")
	assert.Equal(t, color.NRGBA{G: 200, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, uint8(0), out.NRGBAAt(1, 0).A, "black mask pixels are cut out")
}

func TestMaskedUsesLuminanceNotAlpha(t *testing.T) {
	t.Parallel()

	img := uniform(2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	// An opaque black RGBA mask must still cut everything out.
	mask := uniform(2, 2, color.NRGBA{A: 255})
	out := compositor.Masked(img, mask)

	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
}

func TestTint(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 40})
	src.SetNRGBA(1, 0, color.NRGBA{})
	src.SetNRGBA(2, 0, color.NRGBA{R: 90, A: 255})

	out := compositor.Tint(src, color.NRGBA{R: 88, G: 101, B: 242, A: 255})

	assert.Equal(t, color.NRGBA{R: 88, G: 101, B: 242, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 88, G: 101, B: 242, A: 255}, out.NRGBAAt(2, 0))
}

func TestStitch(t *testing.T) {
	t.Parallel()

	red := uniform(5, 2, color.NRGBA{R: 255, A: 255})
	blue := uniform(5, 3, color.NRGBA{B: 255, A: 255})

	out, err := compositor.Stitch(red, blue, red)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 5, 7), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, out.NRGBAAt(0, 2))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, out.NRGBAAt(4, 4))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(0, 5))
}

func TestStitchErrors(t *testing.T) {
	t.Parallel()

	_, err := compositor.Stitch()
	require.ErrorIs(t, err, compositor.ErrNoPieces)

	_, err = compositor.Stitch(uniform(5, 1, color.NRGBA{}), uniform(6, 1, color.NRGBA{}))
	require.ErrorIs(t, err, compositor.ErrWidthMismatch)
}

func TestExtendRight(t *testing.T) {
	t.Parallel()

	base := uniform(3, 2, color.NRGBA{R: 255, A: 255})
	panel := uniform(2, 2, color.NRGBA{R: 41, G: 43, B: 47, A: 255})

	out := compositor.ExtendRight(base, panel)

	assert.Equal(t, image.Rect(0, 0, 5, 2), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(2, 1))
	assert.Equal(t, color.NRGBA{R: 41, G: 43, B: 47, A: 255}, out.NRGBAAt(3, 0))
}
