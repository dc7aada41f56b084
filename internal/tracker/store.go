package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bytedance/sonic"
	"github.com/redqct/redqct/internal/compositor"
)

// Per-user file names.
const (
	OffsetFile    = "offset.json"
	LegendFile    = "legend.json"
	ProfileFile   = "profile.json"
	TodayFile     = "graph_today.png"
	YesterdayFile = "graph_yesterday.png"
)

// Day selects one of the two persisted graphs.
type Day int

const (
	Today Day = iota
	Yesterday
)

// String returns the day name.
func (d Day) String() string {
	if d == Yesterday {
		return "yesterday"
	}
	return "today"
}

// ParseDay maps "yesterday" to Yesterday and anything else to Today.
func ParseDay(s string) Day {
	if s == "yesterday" {
		return Yesterday
	}
	return Today
}

func (d Day) file() string {
	if d == Yesterday {
		return YesterdayFile
	}
	return TodayFile
}

// Profile caches the display identity of a tracked user.
type Profile struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
	// LastRollover is the local date (YYYY-MM-DD) of the most recent rollover.
	LastRollover string `json:"last_rollover,omitempty"`
}

// Store keeps one flat directory per tracked user under a root directory.
// Files are written by direct overwrite.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Dir returns the directory of user id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// Exists reports whether user id has a directory.
func (s *Store) Exists(id string) bool {
	info, err := os.Stat(s.Dir(id))
	return err == nil && info.IsDir()
}

// List returns the ids of all user directories, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)

	return ids, nil
}

// Init creates the directory of user id with its records and two copies of
// the empty graph. It does nothing and returns false if the directory exists.
func (s *Store) Init(id string, profile Profile, offset Offset, empty image.Image) (bool, error) {
	if s.Exists(id) {
		return false, nil
	}

	if err := os.MkdirAll(s.Dir(id), 0o755); err != nil {
		return false, fmt.Errorf("failed to create user directory: %w", err)
	}

	if err := s.WriteOffset(id, offset); err != nil {
		return false, err
	}
	if err := s.WriteLegend(id, NewLegend(nil)); err != nil {
		return false, err
	}
	if err := s.WriteProfile(id, profile); err != nil {
		return false, err
	}
	if err := s.WriteGraph(id, Yesterday, empty); err != nil {
		return false, err
	}
	if err := s.WriteGraph(id, Today, empty); err != nil {
		return false, err
	}

	return true, nil
}

// Remove deletes the directory of user id.
func (s *Store) Remove(id string) error {
	if err := os.RemoveAll(s.Dir(id)); err != nil {
		return fmt.Errorf("failed to remove user directory: %w", err)
	}
	return nil
}

// ReadOffset loads the offset record.
func (s *Store) ReadOffset(id string) (Offset, error) {
	var o Offset
	err := s.readJSON(id, OffsetFile, &o)
	return o, err
}

// WriteOffset saves the offset record.
func (s *Store) WriteOffset(id string, o Offset) error {
	return s.writeJSON(id, OffsetFile, o)
}

// ReadLegend loads the legend record. A missing record is an empty legend.
func (s *Store) ReadLegend(id string) (*Legend, error) {
	var entries []LegendEntry
	if err := s.readJSON(id, LegendFile, &entries); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewLegend(nil), nil
		}
		return nil, err
	}
	return NewLegend(entries), nil
}

// WriteLegend saves the legend record.
func (s *Store) WriteLegend(id string, l *Legend) error {
	return s.writeJSON(id, LegendFile, l.Entries())
}

// ReadProfile loads the profile record. A missing record is an empty profile.
func (s *Store) ReadProfile(id string) (Profile, error) {
	var p Profile
	if err := s.readJSON(id, ProfileFile, &p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return p, err
	}
	return p, nil
}

// WriteProfile saves the profile record.
func (s *Store) WriteProfile(id string, p Profile) error {
	return s.writeJSON(id, ProfileFile, p)
}

// GraphBytes returns the encoded graph for day.
func (s *Store) GraphBytes(id string, day Day) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), day.file()))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s graph: %w", day, err)
	}
	return data, nil
}

// ReadGraph decodes the graph for day into an editable image.
func (s *Store) ReadGraph(id string, day Day) (*image.NRGBA, error) {
	data, err := s.GraphBytes(id, day)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s graph: %w", day, err)
	}

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}

	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	return out, nil
}

// WriteGraph encodes and saves the graph for day.
func (s *Store) WriteGraph(id string, day Day, img image.Image) error {
	data, err := compositor.EncodePNG(img)
	if err != nil {
		return err
	}
	return s.writeFile(id, day.file(), data)
}

// WriteGraphBytes saves already encoded graph data for day.
func (s *Store) WriteGraphBytes(id string, day Day, data []byte) error {
	return s.writeFile(id, day.file(), data)
}

func (s *Store) readJSON(id, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return nil
}

func (s *Store) writeJSON(id, name string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.writeFile(id, name, data)
}

func (s *Store) writeFile(id, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.Dir(id), name), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
