package tracker

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// OffsetGrammar describes the accepted offset format in error messages.
const OffsetGrammar = "[+|-]H[H][:M[M]] with hours 0-23 and minutes 0-59, e.g. +5, -8:30, 10:45"

// ErrInvalidOffset is returned for malformed UTC offsets.
var ErrInvalidOffset = errors.New("invalid UTC offset")

var offsetPattern = regexp.MustCompile(`^[+-]?\d{1,2}(:\d{1,2})?$`)

// Offset is a signed UTC offset. Both fields carry the same sign.
type Offset struct {
	Hours   int `json:"h_offset"`
	Minutes int `json:"m_offset"`
}

// ParseOffset parses offsets such as "+5", "-8:30" or "10:45".
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimSpace(s)
	if !offsetPattern.MatchString(s) {
		return Offset{}, fmt.Errorf("%w %q: expected %s", ErrInvalidOffset, s, OffsetGrammar)
	}

	sign := 1
	body := s

	switch s[0] {
	case '-':
		sign = -1
		body = s[1:]
	case '+':
		body = s[1:]
	}

	hourPart, minutePart, _ := strings.Cut(body, ":")

	hours, _ := strconv.Atoi(hourPart)
	minutes := 0
	if minutePart != "" {
		minutes, _ = strconv.Atoi(minutePart)
	}

	if hours > 23 {
		return Offset{}, fmt.Errorf("%w %q: hour %d out of range, expected %s", ErrInvalidOffset, s, hours, OffsetGrammar)
	}
	if minutes > 59 {
		return Offset{}, fmt.Errorf("%w %q: minute %d out of range, expected %s", ErrInvalidOffset, s, minutes, OffsetGrammar)
	}

	return Offset{Hours: sign * hours, Minutes: sign * minutes}, nil
}

// Duration returns the offset as a duration.
func (o Offset) Duration() time.Duration {
	return time.Duration(o.Hours)*time.Hour + time.Duration(o.Minutes)*time.Minute
}

// Apply converts t to the offset's local wall clock.
func (o Offset) Apply(t time.Time) time.Time {
	return t.UTC().Add(o.Duration())
}

// String formats the offset as "+05:30" or "-08:00".
func (o Offset) String() string {
	sign := "+"
	h, m := o.Hours, o.Minutes
	if h < 0 || m < 0 {
		sign = "-"
		h, m = -h, -m
	}
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}
