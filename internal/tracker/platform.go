package tracker

import (
	"context"
	"image"
	"image/color"
	"time"
)

// Identity is a user's display identity.
type Identity struct {
	Name string
	Tag  string
}

// Platform answers questions about live users of the chat platform.
type Platform interface {
	// IsMember reports whether id still belongs to the tracked group.
	IsMember(ctx context.Context, id string) (bool, error)
	// ActivityNames returns the names of the user's current activities.
	ActivityNames(ctx context.Context, id string) ([]string, error)
	// Identity returns the user's current display identity.
	Identity(ctx context.Context, id string) (Identity, error)
}

// Renderer draws the parts of a timeline graph that need fonts.
type Renderer interface {
	// Empty renders the titled graph for a new day.
	Empty(name, tag string, date time.Time, hOffset, mOffset int) (*image.NRGBA, error)
	// DrawLegendEntry draws one swatch and its label at origin.
	DrawLegendEntry(img *image.NRGBA, colour color.Color, text string, origin image.Point) error
}
