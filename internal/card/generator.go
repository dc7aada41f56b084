// Package card composes status card images from member attributes.
package card

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/compositor"
	"github.com/redqct/redqct/internal/fetcher"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Fetch tags used to re-associate downloaded images with their role.
const (
	AvatarTag      = "avatar"
	largeTagPrefix = "large:"
	smallTagPrefix = "small:"
)

// externalProxyPrefix marks art served through the media proxy, which rejects
// direct fetches. The original asset URL is embedded later in the string.
const externalProxyPrefix = "https://media.discordapp.net/external/"

// Placeholder is drawn when a member has no activities.
const Placeholder = "CURRENTLY NOT DOING ANYTHING"

var (
	white    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	tagColor = color.NRGBA{R: 167, G: 169, B: 172, A: 255}
)

// Member piece layout.
var (
	avatarAt       = image.Pt(30, 50)
	statusUnderAt  = image.Pt(164, 184)
	statusLightAt  = image.Pt(176, 196)
	nameAt         = image.Pt(266, 113)
	nameWithNickAt = image.Pt(266, 73)
	nickAt         = image.Pt(266, 109)
)

// Activity and custom status piece layout.
var (
	customStatusAt = image.Pt(50, 38)
	headerAt       = image.Pt(51, 55)
	largeArtAt     = image.Pt(48, 91)
	smallUnderAt   = image.Pt(177, 215)
	smallArtAt     = image.Pt(181, 219)
	lineX          = 253
	lineY          = [4]int{128, 158, 188, 218}
)

// ImageFetcher downloads tagged images.
type ImageFetcher interface {
	FetchAll(ctx context.Context, reqs []fetcher.Request) (map[string]image.Image, error)
}

// Generator renders status cards. It is safe for concurrent use.
type Generator struct {
	pack    *assets.Pack
	fetcher ImageFetcher
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewGenerator creates a Generator drawing with pack.
func NewGenerator(pack *assets.Pack, fetcher ImageFetcher, logger *zap.Logger) *Generator {
	return &Generator{
		pack:    pack,
		fetcher: fetcher,
		logger:  logger.Named("card"),
		tracer:  otel.Tracer("card"),
	}
}

// Generate fetches all remote art for attrs and composes the card. Any failed
// fetch fails the whole render.
func (g *Generator) Generate(ctx context.Context, attrs MemberAttrs) (*image.NRGBA, error) {
	ctx, span := g.tracer.Start(ctx, "card.Generate", trace.WithAttributes(
		attribute.Int("activities", len(attrs.Activities)),
		attribute.Bool("custom_status", attrs.CustomActivity != nil),
	))
	defer span.End()

	start := time.Now()

	images, err := g.fetcher.FetchAll(ctx, Requests(attrs))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to fetch card images: %w", err)
	}

	ts, err := g.pack.Typeset()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare fonts: %w", err)
	}

	pieces := []image.Image{g.memberPiece(attrs, images[AvatarTag], ts)}

	if attrs.CustomActivity != nil {
		pieces = append(pieces, g.customStatusPiece(*attrs.CustomActivity, ts))
	}

	if len(attrs.Activities) == 0 {
		pieces = append(pieces, g.placeholderPiece(ts))
	}

	for i, activity := range attrs.Activities {
		pieces = append(pieces, g.activityPiece(activity, images[LargeTag(i)], images[SmallTag(i)], ts))
	}

	img, err := compositor.Stitch(pieces...)
	if err != nil {
		return nil, fmt.Errorf("failed to stitch card: %w", err)
	}

	g.logger.Debug("Generated status card",
		zap.String("name", attrs.Name),
		zap.Int("pieces", len(pieces)),
		zap.Int("images", len(images)),
		zap.Duration("duration", time.Since(start)))

	return img, nil
}

// Render generates the card and encodes it as PNG.
func (g *Generator) Render(ctx context.Context, attrs MemberAttrs) ([]byte, error) {
	img, err := g.Generate(ctx, attrs)
	if err != nil {
		return nil, err
	}
	return compositor.EncodePNG(img)
}

// Requests lists every remote image attrs needs, tagged by role and activity index.
func Requests(attrs MemberAttrs) []fetcher.Request {
	var reqs []fetcher.Request

	if attrs.Avatar != "" {
		reqs = append(reqs, fetcher.Request{Tag: AvatarTag, URL: attrs.Avatar})
	}

	for i, activity := range attrs.Activities {
		if activity.ImageLarge != "" {
			reqs = append(reqs, fetcher.Request{Tag: LargeTag(i), URL: ResolveProxyURL(activity.ImageLarge)})
		}
		if activity.ImageSmall != "" {
			reqs = append(reqs, fetcher.Request{Tag: SmallTag(i), URL: ResolveProxyURL(activity.ImageSmall)})
		}
	}

	return reqs
}

// LargeTag is the fetch tag of activity i's large art.
func LargeTag(i int) string {
	return largeTagPrefix + strconv.Itoa(i)
}

// SmallTag is the fetch tag of activity i's small art.
func SmallTag(i int) string {
	return smallTagPrefix + strconv.Itoa(i)
}

// ResolveProxyURL rewrites media proxy URLs to the original asset URL they wrap.
// Other URLs are returned unchanged.
func ResolveProxyURL(url string) string {
	if !strings.HasPrefix(url, externalProxyPrefix) {
		return url
	}

	parts := strings.Split(url, "https")
	if len(parts) < 3 {
		return url
	}

	return "https:/" + parts[2]
}
