// Package palette assigns stable, collision-free colours to activity names.
package palette

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ErrInvalidColour is returned when a persisted colour cannot be decoded.
var ErrInvalidColour = errors.New("invalid colour")

// DefaultRandomAttempts bounds the random fallback before the hash-derived colour is used.
const DefaultRandomAttempts = 4096

// colourSpace is the number of distinct 24-bit colours.
const colourSpace = 1 << 24

// UsedFunc reports whether a colour is already taken in the caller's legend.
type UsedFunc func(RGB) bool

// Allocator picks colours for newly seen activity names. Sources are consulted
// in order: preset table, pastel list, bounded random retry, hash-derived colour.
// Preset colours are reserved for their own names and never handed out to others.
type Allocator struct {
	presets        map[string]RGB
	reserved       map[uint32]struct{}
	pastels        []RGB
	rand           *rand.Rand
	randomAttempts int
}

// NewAllocator creates an Allocator. A non-positive randomAttempts falls back to
// DefaultRandomAttempts; a nil src uses a time-seeded source.
func NewAllocator(presets []Preset, pastels []RGB, randomAttempts int, src rand.Source) *Allocator {
	if randomAttempts <= 0 {
		randomAttempts = DefaultRandomAttempts
	}

	var r *rand.Rand
	if src != nil {
		r = rand.New(src)
	} else {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	a := &Allocator{
		presets:        make(map[string]RGB, len(presets)),
		reserved:       make(map[uint32]struct{}, len(presets)),
		pastels:        pastels,
		rand:           r,
		randomAttempts: randomAttempts,
	}

	for _, p := range presets {
		a.presets[p.Name] = p.Colour
		a.reserved[p.Colour.key()] = struct{}{}
	}

	return a
}

// Preset returns the curated colour for name, if any.
func (a *Allocator) Preset(name string) (RGB, bool) {
	c, ok := a.presets[name]
	return c, ok
}

// Allocate returns a colour for name that used does not report as taken.
// The caller is expected to call Allocate only for names not yet in its legend.
func (a *Allocator) Allocate(name string, used UsedFunc) RGB {
	if used == nil {
		used = func(RGB) bool { return false }
	}

	if c, ok := a.presets[name]; ok {
		return c
	}

	free := func(c RGB) bool {
		if _, ok := a.reserved[c.key()]; ok {
			return false
		}
		return !used(c)
	}

	for _, c := range a.pastels {
		if free(c) {
			return c
		}
	}

	for range a.randomAttempts {
		c := fromKey(a.rand.Uint32() & (colourSpace - 1))
		if free(c) {
			return c
		}
	}

	// Probe from the hash-derived colour until a free slot turns up.
	start := HashColour(name).key()
	for i := range uint32(colourSpace) {
		c := fromKey((start + i) & (colourSpace - 1))
		if free(c) {
			return c
		}
	}

	// Every colour is taken; nothing distinct is left to give.
	return HashColour(name)
}

// HashColour derives a deterministic pastel colour from name using a 31-multiplier
// string hash mapped through HSL (saturation 0.4, lightness 0.65).
func HashColour(name string) RGB {
	var h uint32
	for _, r := range name {
		h = 31*h + uint32(r)
	}

	hue := float64(h%360) / 360.0
	r, g, b := hslToRGB(hue, 0.4, 0.65)
	return RGB{R: r, G: g, B: b}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}

	p := 2*l - q

	to := func(v float64) uint8 {
		return uint8(math.Round(v * 255))
	}

	return to(hueToRGB(p, q, h+1.0/3.0)), to(hueToRGB(p, q, h)), to(hueToRGB(p, q, h-1.0/3.0))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}

	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
