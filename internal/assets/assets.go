// Package assets loads the static template images, masks, status lights and
// fonts the renderers draw with, and embeds the colour tables.
package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/redqct/redqct/internal/compositor"
)

// Template and mask file names inside the assets directory.
const (
	MemberTemplateFile        = "redqct-empty-template-member-1100x600.png"
	BannerTemplateFile        = "redqct-empty-template-banner-1100x150.png"
	CustomStatusTemplateFile  = "redqct-empty-template-custom-status-1100x100.png"
	DummyActivityTemplateFile = "redqct-empty-template-dummy-1100x335.png"
	ActivityTemplateFile      = "redqct-empty-template-activity-1100x335.png"
	GraphTemplateFile         = "redqct-graph-empty-template-1920x1080.png"
	PfpMaskFile               = "mask_pfp.png"
	ActivityMaskFile          = "mask_activity.png"
	StatusMaskFile            = "mask_status_60.png"
	StatusUnderlayFile        = "status_underlay_69.png"
	LightOnlineFile           = "status_online.png"
	LightIdleFile             = "status_idle.png"
	LightDNDFile              = "status_dnd.png"
	LightInvisibleFile        = "status_invis.png"
)

// Status lights are scaled to this size on load.
const (
	LightWidth  = 48
	LightHeight = 47
)

// FontFiles names the font files inside the assets font directory.
type FontFiles struct {
	Regular  string
	Bold     string
	Heavy    string
	Fallback string
}

// Pack holds every decoded static asset. A Pack is read-only after loading and
// may be shared between concurrent renders.
type Pack struct {
	Member        image.Image
	Banner        image.Image
	CustomStatus  image.Image
	Activity      image.Image
	DummyActivity image.Image
	Graph         image.Image

	PfpMask        image.Image
	ActivityMask   image.Image
	StatusMask     image.Image
	StatusUnderlay image.Image

	LightOnline    image.Image
	LightIdle      image.Image
	LightDND       image.Image
	LightInvisible image.Image

	Regular  *Font
	Bold     *Font
	Heavy    *Font
	Fallback *Font
}

// Load decodes all templates from dir and all fonts from fontDir.
func Load(dir, fontDir string, fonts FontFiles) (*Pack, error) {
	p := &Pack{}

	images := []struct {
		file string
		dst  *image.Image
	}{
		{MemberTemplateFile, &p.Member},
		{BannerTemplateFile, &p.Banner},
		{CustomStatusTemplateFile, &p.CustomStatus},
		{DummyActivityTemplateFile, &p.DummyActivity},
		{ActivityTemplateFile, &p.Activity},
		{GraphTemplateFile, &p.Graph},
		{PfpMaskFile, &p.PfpMask},
		{ActivityMaskFile, &p.ActivityMask},
		{StatusMaskFile, &p.StatusMask},
		{StatusUnderlayFile, &p.StatusUnderlay},
		{LightOnlineFile, &p.LightOnline},
		{LightIdleFile, &p.LightIdle},
		{LightDNDFile, &p.LightDND},
		{LightInvisibleFile, &p.LightInvisible},
	}

	for _, entry := range images {
		img, err := loadImage(filepath.Join(dir, entry.file))
		if err != nil {
			return nil, err
		}
		*entry.dst = img
	}

	for _, light := range []*image.Image{&p.LightOnline, &p.LightIdle, &p.LightDND, &p.LightInvisible} {
		*light = compositor.Resize(*light, LightWidth, LightHeight)
	}

	fontEntries := []struct {
		file string
		dst  **Font
	}{
		{fonts.Regular, &p.Regular},
		{fonts.Bold, &p.Bold},
		{fonts.Heavy, &p.Heavy},
		{fonts.Fallback, &p.Fallback},
	}

	for _, entry := range fontEntries {
		f, err := LoadFont(filepath.Join(fontDir, entry.file))
		if err != nil {
			return nil, err
		}
		*entry.dst = f
	}

	return p, nil
}

// Typeset is the set of font pairs one render pipeline draws with.
type Typeset struct {
	Bold40  compositor.FontPair
	Bold30  compositor.FontPair
	Bold25  compositor.FontPair
	Bold20  compositor.FontPair
	Heavy25 compositor.FontPair
	Reg25   compositor.FontPair
}

// Typeset builds fresh faces for a single render. Each preferred face is paired
// with the fallback font at the same size and checked against its own glyph table.
func (p *Pack) Typeset() (*Typeset, error) {
	ts := &Typeset{}

	specs := []struct {
		font *Font
		size float64
		dst  *compositor.FontPair
	}{
		{p.Bold, 40, &ts.Bold40},
		{p.Bold, 30, &ts.Bold30},
		{p.Bold, 25, &ts.Bold25},
		{p.Bold, 20, &ts.Bold20},
		{p.Heavy, 25, &ts.Heavy25},
		{p.Regular, 25, &ts.Reg25},
	}

	for _, s := range specs {
		preferred, err := s.font.Face(s.size)
		if err != nil {
			return nil, err
		}

		fallback, err := p.Fallback.Face(s.size)
		if err != nil {
			return nil, err
		}

		*s.dst = compositor.FontPair{
			Preferred: preferred,
			Fallback:  fallback,
			Glyphs:    s.font,
		}
	}

	return ts, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}
	defer f.Close()

	if filepath.Ext(path) == ".png" {
		img, err := png.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return img, nil
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
