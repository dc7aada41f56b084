package tracker

import (
	"slices"

	"github.com/redqct/redqct/pkg/utils"
	"golang.org/x/text/unicode/norm"
)

// User is the in-memory state of one tracked user.
type User struct {
	ID      string
	Profile Profile
	Offset  Offset
	Legend  *Legend
}

// Snapshot is a read-only copy of a tracked user.
type Snapshot struct {
	ID      string
	Name    string
	Tag     string
	Offset  Offset
	Entries []LegendEntry
}

func (u *User) snapshot() Snapshot {
	return Snapshot{
		ID:      u.ID,
		Name:    u.Profile.Name,
		Tag:     u.Profile.Tag,
		Offset:  u.Offset,
		Entries: u.Legend.Entries(),
	}
}

// NormalizeNames NFC-normalises names and folds their whitespace, drops empty
// ones and returns the distinct names sorted.
func NormalizeNames(names []string) []string {
	out := make([]string, 0, len(names))

	for _, name := range names {
		name = utils.CompressAllWhitespace(norm.NFC.String(name))
		if name == "" {
			continue
		}
		out = append(out, name)
	}

	slices.Sort(out)
	return slices.Compact(out)
}
