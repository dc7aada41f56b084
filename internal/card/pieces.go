package card

import (
	"image"

	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/compositor"
)

func (g *Generator) memberPiece(attrs MemberAttrs, avatar image.Image, ts *assets.Typeset) image.Image {
	c := compositor.NewCanvas(g.pack.Member)

	if attrs.BannerColour != nil {
		c.Draw(compositor.Tint(g.pack.Banner, *attrs.BannerColour), image.Point{})
	}

	if avatar != nil {
		c.Draw(compositor.Masked(avatar, g.pack.PfpMask), avatarAt)
	}

	c.Draw(g.pack.StatusUnderlay, statusUnderAt)
	c.Draw(g.light(attrs.Status), statusLightAt)

	at := nameAt
	if attrs.Nick != "" {
		at = nameWithNickAt
		c.Text("(aka "+attrs.Nick+")", white, nickAt, ts.Bold20)
	}

	offset := c.Text(attrs.Name, white, at, ts.Bold30)
	if attrs.Tag != "" {
		c.Text("#"+attrs.Tag, tagColor, at.Add(image.Pt(offset, 0)), ts.Bold30)
	}

	return c.Image()
}

func (g *Generator) light(status Status) image.Image {
	switch status {
	case StatusOnline:
		return g.pack.LightOnline
	case StatusIdle:
		return g.pack.LightIdle
	case StatusDND:
		return g.pack.LightDND
	case StatusOffline:
		return g.pack.LightInvisible
	default:
		return g.pack.LightInvisible
	}
}

func (g *Generator) customStatusPiece(text string, ts *assets.Typeset) image.Image {
	c := compositor.NewCanvas(g.pack.CustomStatus)
	if text != "" {
		c.Text(text, white, customStatusAt, ts.Heavy25)
	}
	return c.Image()
}

func (g *Generator) placeholderPiece(ts *assets.Typeset) image.Image {
	c := compositor.NewCanvas(g.pack.DummyActivity)
	c.Text(Placeholder, white, headerAt, ts.Heavy25)
	return c.Image()
}

func (g *Generator) activityPiece(a ActivityAttrs, large, small image.Image, ts *assets.Typeset) image.Image {
	c := compositor.NewCanvas(g.pack.Activity)

	if large != nil {
		c.Draw(compositor.Masked(large, g.pack.ActivityMask), largeArtAt)
	}

	if small != nil {
		c.Draw(g.pack.StatusUnderlay, smallUnderAt)
		c.Draw(compositor.Masked(small, g.pack.StatusMask), smallArtAt)
	}

	c.Text(a.Type.Caption(), white, headerAt, ts.Heavy25)

	for i, line := range a.Lines {
		pair := ts.Reg25
		if i == 0 {
			pair = ts.Bold25
		}
		c.Text(line, white, image.Pt(lineX, lineY[i]), pair)
	}

	return c.Image()
}
