package tracker_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/assets/assetstest"
	"github.com/redqct/redqct/internal/graph"
	"github.com/redqct/redqct/internal/palette"
	"github.com/redqct/redqct/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePlatform struct {
	mu         sync.Mutex
	gone       map[string]bool
	activities map[string][]string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		gone:       make(map[string]bool),
		activities: make(map[string][]string),
	}
}

func (p *fakePlatform) IsMember(_ context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.gone[id], nil
}

func (p *fakePlatform) ActivityNames(_ context.Context, id string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activities[id], nil
}

func (p *fakePlatform) Identity(_ context.Context, id string) (tracker.Identity, error) {
	return tracker.Identity{Name: "user" + id, Tag: "0001"}, nil
}

func (p *fakePlatform) set(id string, names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities[id] = names
}

func (p *fakePlatform) leave(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gone[id] = true
}

var errBrokenLegend = errors.New("legend entry failed")

// failingRenderer refuses to draw legend entries for one name.
type failingRenderer struct {
	*graph.Renderer
	name string
}

func (r failingRenderer) DrawLegendEntry(img *image.NRGBA, colour color.Color, text string, origin image.Point) error {
	if text == r.name {
		return errBrokenLegend
	}
	return r.Renderer.DrawLegendEntry(img, colour, text, origin)
}

type fixture struct {
	registry *tracker.Registry
	store    *tracker.Store
	platform *fakePlatform
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	platform := newFakePlatform()
	return newFixtureAt(t, dir, platform)
}

func newFixtureAt(t *testing.T, dir string, platform *fakePlatform) *fixture {
	t.Helper()
	return newFixtureWith(t, dir, platform, graph.NewRenderer(assetstest.New(t)))
}

func newFixtureWith(t *testing.T, dir string, platform *fakePlatform, renderer tracker.Renderer) *fixture {
	t.Helper()

	store, err := tracker.NewStore(dir)
	require.NoError(t, err)

	allocator, err := assets.NewAllocator(64)
	require.NoError(t, err)

	registry := tracker.NewRegistry(store, platform, renderer, allocator, zaptest.NewLogger(t))

	return &fixture{registry: registry, store: store, platform: platform, dir: dir}
}

func (f *fixture) graph(t *testing.T, id string, day tracker.Day) image.Image {
	t.Helper()

	data, err := f.registry.Graph(id, day)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	return img
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func opaque(c palette.RGB) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// columnIs reports whether the whole strip at x is filled with c.
func columnIs(img image.Image, x int, c color.NRGBA) bool {
	for y := graph.StripTop; y < graph.StripTop+graph.StripHeight; y++ {
		if nrgba(img.At(x, y)) != c {
			return false
		}
	}
	return true
}

func TestTickSpotifyWithHalfHourOffset(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 3, 10, 6, 40, 0, 0, time.UTC)

	_, err := f.registry.Track(t.Context(), "1", "+05:30", now)
	require.NoError(t, err)

	f.platform.set("1", "Spotify")
	require.NoError(t, f.registry.Tick(t.Context(), now))

	user, ok := f.registry.Get("1")
	require.True(t, ok)
	require.Len(t, user.Entries, 1)
	assert.Equal(t, "Spotify", user.Entries[0].Name)
	assert.Equal(t, palette.RGB{R: 101, G: 213, B: 109}, user.Entries[0].Colour)

	// Local time is 12:10.
	img := f.graph(t, "1", tracker.Today)
	x := 49 + 12*60 + 10
	assert.True(t, columnIs(img, x, color.NRGBA{R: 101, G: 213, B: 109, A: 255}))
	assert.Equal(t, assetstest.GraphBackground, nrgba(img.At(x-1, graph.StripTop+10)))
	assert.Equal(t, assetstest.GraphBackground, nrgba(img.At(x+1, graph.StripTop+10)))

	legend, err := f.store.ReadLegend("1")
	require.NoError(t, err)
	assert.Equal(t, user.Entries, legend.Entries())
}

func TestTickBandsSortedByName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)

	_, err := f.registry.Track(t.Context(), "1", "0", now)
	require.NoError(t, err)

	f.platform.set("1", "VALORANT", "Minecraft", "Spotify")
	require.NoError(t, f.registry.Tick(t.Context(), now))

	img := f.graph(t, "1", tracker.Today)
	x := graph.ColumnX(1, 0)

	// 800 / 3 leaves a remainder of 2 for the first two bands.
	assert.Equal(t, color.NRGBA{R: 171, G: 161, B: 159, A: 255}, nrgba(img.At(x, graph.StripTop)))
	assert.Equal(t, color.NRGBA{R: 171, G: 161, B: 159, A: 255}, nrgba(img.At(x, graph.StripTop+266)))
	assert.Equal(t, color.NRGBA{R: 101, G: 213, B: 109, A: 255}, nrgba(img.At(x, graph.StripTop+267)))
	assert.Equal(t, color.NRGBA{R: 101, G: 213, B: 109, A: 255}, nrgba(img.At(x, graph.StripTop+533)))
	assert.Equal(t, color.NRGBA{R: 253, G: 83, B: 98, A: 255}, nrgba(img.At(x, graph.StripTop+534)))
	assert.Equal(t, color.NRGBA{R: 253, G: 83, B: 98, A: 255}, nrgba(img.At(x, graph.StripTop+799)))
}

func TestTickWithoutActivityDrawsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)

	_, err := f.registry.Track(t.Context(), "1", "0", now)
	require.NoError(t, err)
	require.NoError(t, f.registry.Tick(t.Context(), now))

	img := f.graph(t, "1", tracker.Today)
	assert.True(t, columnIs(img, graph.ColumnX(1, 0), assetstest.GraphBackground))
}

func TestRolloverOncePerDay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	lateEvening := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	midnight := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	minecraft := color.NRGBA{R: 171, G: 161, B: 159, A: 255}
	roblox := color.NRGBA{R: 219, G: 33, B: 25, A: 255}

	_, err := f.registry.Track(t.Context(), "1", "0", lateEvening)
	require.NoError(t, err)

	f.platform.set("1", "Minecraft")
	require.NoError(t, f.registry.Tick(t.Context(), lateEvening))

	f.platform.set("1", "Roblox")
	require.NoError(t, f.registry.Tick(t.Context(), midnight))

	yesterday := f.graph(t, "1", tracker.Yesterday)
	today := f.graph(t, "1", tracker.Today)
	assert.True(t, columnIs(yesterday, graph.ColumnX(23, 59), minecraft))
	assert.True(t, columnIs(today, graph.ColumnX(0, 0), roblox))
	assert.True(t, columnIs(today, graph.ColumnX(23, 59), assetstest.GraphBackground))

	user, _ := f.registry.Get("1")
	assert.Equal(t, []string{"Roblox"}, names(user.Entries))

	// A second tick within the same minute must not archive again.
	require.NoError(t, f.registry.Tick(t.Context(), midnight.Add(30*time.Second)))

	yesterday = f.graph(t, "1", tracker.Yesterday)
	today = f.graph(t, "1", tracker.Today)
	assert.True(t, columnIs(yesterday, graph.ColumnX(23, 59), minecraft))
	assert.True(t, columnIs(today, graph.ColumnX(0, 0), roblox))

	profile, err := f.store.ReadProfile("1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", profile.LastRollover)
}

func TestRolloverMissedTick(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	lateEvening := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	minecraft := color.NRGBA{R: 171, G: 161, B: 159, A: 255}

	_, err := f.registry.Track(t.Context(), "1", "0", lateEvening)
	require.NoError(t, err)

	f.platform.set("1", "Minecraft")
	require.NoError(t, f.registry.Tick(t.Context(), lateEvening))

	// The scheduler skipped 00:00, so the day is never archived.
	require.NoError(t, f.registry.Tick(t.Context(), time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC)))

	yesterday := f.graph(t, "1", tracker.Yesterday)
	today := f.graph(t, "1", tracker.Today)
	assert.True(t, columnIs(yesterday, graph.ColumnX(23, 59), assetstest.GraphBackground))
	assert.True(t, columnIs(today, graph.ColumnX(23, 59), minecraft))
	assert.True(t, columnIs(today, graph.ColumnX(0, 1), minecraft))

	user, _ := f.registry.Get("1")
	assert.Equal(t, []string{"Minecraft"}, names(user.Entries))
}

func TestRolloverUsesLocalMidnight(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// 18:30 UTC is local midnight at +05:30.
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)

	_, err := f.registry.Track(t.Context(), "1", "+5:30", now.Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, f.registry.Tick(t.Context(), now))

	profile, err := f.store.ReadProfile("1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", profile.LastRollover)
}

func TestLegendGrowsSidePanels(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	_, err := f.registry.Track(t.Context(), "1", "0", now)
	require.NoError(t, err)

	activities := make([]string, 0, 14)
	for i := range 13 {
		activities = append(activities, fmt.Sprintf("app%02d", i))
	}

	f.platform.set("1", activities...)
	require.NoError(t, f.registry.Tick(t.Context(), now))
	assert.Equal(t, 1920, f.graph(t, "1", tracker.Today).Bounds().Dx())

	f.platform.set("1", append(activities, "app13")...)
	require.NoError(t, f.registry.Tick(t.Context(), now.Add(time.Minute)))

	img := f.graph(t, "1", tracker.Today)
	assert.Equal(t, 1920+graph.PanelWidth, img.Bounds().Dx())

	user, _ := f.registry.Get("1")
	require.Len(t, user.Entries, 14)

	colours := make(map[palette.RGB]bool)
	for _, e := range user.Entries {
		assert.False(t, colours[e.Colour], "duplicate colour for %s", e.Name)
		colours[e.Colour] = true
	}

	// Entry 13 starts the second legend column inside the new panel.
	origin := graph.LegendOrigin(13)
	assert.Equal(t, image.Pt(1510+430, 177), origin)
	assert.Equal(t, opaque(user.Entries[13].Colour), nrgba(img.At(origin.X+5, origin.Y+5)))
	assert.Equal(t, graph.PanelColour, nrgba(img.At(1920+400, 1000)))

	origin = graph.LegendOrigin(12)
	assert.Equal(t, opaque(user.Entries[12].Colour), nrgba(img.At(origin.X+5, origin.Y+5)))
}

func TestTickAutoUntracks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	_, err := f.registry.Track(t.Context(), "1", "0", now)
	require.NoError(t, err)
	_, err = f.registry.Track(t.Context(), "2", "0", now)
	require.NoError(t, err)

	f.platform.leave("1")
	f.platform.set("2", "Roblox")
	require.NoError(t, f.registry.Tick(t.Context(), now))

	assert.False(t, f.registry.Exists("1"))
	assert.False(t, f.store.Exists("1"))
	assert.Equal(t, []string{"2"}, f.registry.Users())
}

func TestTrackErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Now()

	_, err := f.registry.Track(t.Context(), "1", "13:70", now)
	require.ErrorIs(t, err, tracker.ErrInvalidOffset)
	assert.False(t, f.store.Exists("1"))
	assert.False(t, f.registry.Exists("1"))

	snap, err := f.registry.Track(t.Context(), "1", "-8:30", now)
	require.NoError(t, err)
	assert.Equal(t, tracker.Offset{Hours: -8, Minutes: -30}, snap.Offset)
	assert.Equal(t, "user1", snap.Name)

	_, err = f.registry.Track(t.Context(), "1", "+1", now)
	require.ErrorIs(t, err, tracker.ErrAlreadyTracked)

	offset, err := f.store.ReadOffset("1")
	require.NoError(t, err)
	assert.Equal(t, tracker.Offset{Hours: -8, Minutes: -30}, offset)

	require.ErrorIs(t, f.registry.Untrack("2"), tracker.ErrNotTracked)

	_, err = f.registry.Graph("2", tracker.Today)
	require.ErrorIs(t, err, tracker.ErrNotTracked)

	require.NoError(t, f.registry.Untrack("1"))
	assert.False(t, f.store.Exists("1"))
	require.ErrorIs(t, f.registry.Untrack("1"), tracker.ErrNotTracked)
}

func TestTrackReusesExistingDirectory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	empty := assetstest.Solid(1920, 1080, assetstest.GraphBackground)

	created, err := f.store.Init("1", tracker.Profile{Name: "old", Tag: "9999"}, tracker.Offset{Hours: 2}, empty)
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.store.Init("1", tracker.Profile{}, tracker.Offset{}, empty)
	require.NoError(t, err)
	assert.False(t, created)

	snap, err := f.registry.Track(t.Context(), "1", "+5", time.Now())
	require.NoError(t, err)
	assert.Equal(t, tracker.Offset{Hours: 2}, snap.Offset)
	assert.Equal(t, "old", snap.Name)
}

func TestLoadDropsStaleUsers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"1", "2"} {
		_, err := f.registry.Track(t.Context(), id, "+1", now)
		require.NoError(t, err)
	}

	f.platform.set("1", "Spotify")
	require.NoError(t, f.registry.Tick(t.Context(), now))

	platform := newFakePlatform()
	platform.leave("2")

	reloaded := newFixtureAt(t, f.dir, platform)
	require.NoError(t, reloaded.registry.Load(t.Context()))

	assert.Equal(t, []string{"1"}, reloaded.registry.Users())
	assert.False(t, reloaded.store.Exists("2"))

	user, ok := reloaded.registry.Get("1")
	require.True(t, ok)
	assert.Equal(t, tracker.Offset{Hours: 1}, user.Offset)
	assert.Equal(t, []string{"Spotify"}, names(user.Entries))
}

func TestTickKeepsLegendWhenDrawFails(t *testing.T) {
	t.Parallel()

	renderer := failingRenderer{Renderer: graph.NewRenderer(assetstest.New(t)), name: "broken"}
	f := newFixtureWith(t, t.TempDir(), newFakePlatform(), renderer)
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	minecraft := color.NRGBA{R: 171, G: 161, B: 159, A: 255}

	_, err := f.registry.Track(t.Context(), "1", "0", now)
	require.NoError(t, err)

	// Minecraft is drawn first, then the second entry fails the whole minute.
	f.platform.set("1", "Minecraft", "broken")
	require.ErrorIs(t, f.registry.Tick(t.Context(), now), errBrokenLegend)

	user, _ := f.registry.Get("1")
	assert.Empty(t, user.Entries)

	legend, err := f.store.ReadLegend("1")
	require.NoError(t, err)
	assert.Equal(t, 0, legend.Len())

	img := f.graph(t, "1", tracker.Today)
	assert.True(t, columnIs(img, graph.ColumnX(10, 0), assetstest.GraphBackground))

	f.platform.set("1", "Minecraft")
	next := now.Add(time.Minute)
	require.NoError(t, f.registry.Tick(t.Context(), next))

	user, _ = f.registry.Get("1")
	assert.Equal(t, []string{"Minecraft"}, names(user.Entries))

	img = f.graph(t, "1", tracker.Today)
	origin := graph.LegendOrigin(0)
	assert.Equal(t, minecraft, nrgba(img.At(origin.X+5, origin.Y+5)))
	assert.True(t, columnIs(img, graph.ColumnX(10, 1), minecraft))
}
