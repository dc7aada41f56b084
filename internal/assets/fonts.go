package assets

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Font is a parsed TrueType/OpenType font.
type Font struct {
	name string
	sfnt *sfnt.Font
}

// ParseFont parses a font file. Collections use their first font.
func ParseFont(name string, data []byte) (*Font, error) {
	var (
		f   *sfnt.Font
		err error
	)

	if bytes.HasPrefix(data, []byte("ttcf")) {
		var c *sfnt.Collection
		c, err = opentype.ParseCollection(data)
		if err == nil {
			f, err = c.Font(0)
		}
	} else {
		f, err = opentype.Parse(data)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}

	return &Font{name: name, sfnt: f}, nil
}

// LoadFont reads and parses a font file from disk.
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	return ParseFont(path, data)
}

// HasGlyph reports whether the font's character map has a glyph for r.
// Glyph index 0 is the .notdef glyph, which means the code point is missing.
func (f *Font) HasGlyph(r rune) bool {
	var buf sfnt.Buffer

	idx, err := f.sfnt.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Face creates a new face at size pixels. Faces are not safe for concurrent use,
// so each render pipeline builds its own.
func (f *Font) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %.0fpx face for %s: %w", size, f.name, err)
	}
	return face, nil
}
