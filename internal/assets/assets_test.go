package assets_test

import (
	"testing"

	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/assets/assetstest"
	"github.com/redqct/redqct/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fontDir := assetstest.WriteDir(t, dir)

	pack, err := assets.Load(dir, fontDir, assetstest.FontFiles)
	require.NoError(t, err)

	assert.Equal(t, 1100, pack.Member.Bounds().Dx())
	assert.Equal(t, 1080, pack.Graph.Bounds().Dy())

	// Lights are scaled down to their drawing size.
	assert.Equal(t, assets.LightWidth, pack.LightOnline.Bounds().Dx())
	assert.Equal(t, assets.LightHeight, pack.LightDND.Bounds().Dy())

	ts, err := pack.Typeset()
	require.NoError(t, err)
	assert.NotNil(t, ts.Bold40.Preferred)
	assert.NotNil(t, ts.Reg25.Fallback)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := assets.Load(t.TempDir(), t.TempDir(), assetstest.FontFiles)
	require.Error(t, err)
}

func TestFontHasGlyph(t *testing.T) {
	t.Parallel()

	f, err := assets.ParseFont("goregular", goregular.TTF)
	require.NoError(t, err)

	assert.True(t, f.HasGlyph('a'))
	assert.True(t, f.HasGlyph('#'))
	assert.False(t, f.HasGlyph('原'))
	assert.False(t, f.HasGlyph('🎮'))
}

func TestParseFontRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := assets.ParseFont("garbage", []byte("not a font"))
	require.Error(t, err)
}

func TestTables(t *testing.T) {
	t.Parallel()

	presets, err := assets.Presets()
	require.NoError(t, err)
	require.Len(t, presets, 11)
	assert.Equal(t, "Spotify", presets[0].Name)
	assert.Equal(t, palette.RGB{R: 101, G: 213, B: 109}, presets[0].Colour)

	pastels, err := assets.Pastels()
	require.NoError(t, err)
	require.Len(t, pastels, 64)

	seen := make(map[palette.RGB]struct{}, len(pastels))
	for _, c := range pastels {
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, 64, "pastel colours must be distinct")

	for _, p := range presets {
		_, clash := seen[p.Colour]
		assert.False(t, clash, "pastel list must not contain preset colour for %s", p.Name)
	}
}
