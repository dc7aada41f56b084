package palette

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// RGB is an opaque 24-bit colour. It satisfies color.Color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// String formats the colour as a hex triplet.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalJSON encodes the colour as a [r, g, b] triple.
func (c RGB) MarshalJSON() ([]byte, error) {
	return sonic.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

// UnmarshalJSON decodes a [r, g, b] triple with components in 0..255.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var triple []int
	if err := sonic.Unmarshal(data, &triple); err != nil {
		return err
	}

	if len(triple) != 3 {
		return fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidColour, len(triple))
	}

	for _, v := range triple {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: component %d out of range", ErrInvalidColour, v)
		}
	}

	c.R, c.G, c.B = uint8(triple[0]), uint8(triple[1]), uint8(triple[2])
	return nil
}

// key packs the colour into a 24-bit integer.
func (c RGB) key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func fromKey(k uint32) RGB {
	return RGB{R: uint8(k >> 16), G: uint8(k >> 8), B: uint8(k)}
}

// Preset is a curated colour for a well-known activity name.
type Preset struct {
	Name   string `json:"name"`
	Colour RGB    `json:"colour"`
}
