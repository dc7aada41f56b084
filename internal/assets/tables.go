package assets

import (
	_ "embed"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redqct/redqct/internal/palette"
)

var (
	//go:embed data/presets.json
	presetsJSON []byte

	//go:embed data/pastels.json
	pastelsJSON []byte
)

// Presets returns the curated activity colours in table order.
func Presets() ([]palette.Preset, error) {
	var presets []palette.Preset
	if err := sonic.Unmarshal(presetsJSON, &presets); err != nil {
		return nil, fmt.Errorf("failed to decode preset table: %w", err)
	}
	return presets, nil
}

// Pastels returns the precomputed distinct pastel colours in generation order.
func Pastels() ([]palette.RGB, error) {
	var pastels []palette.RGB
	if err := sonic.Unmarshal(pastelsJSON, &pastels); err != nil {
		return nil, fmt.Errorf("failed to decode pastel table: %w", err)
	}
	return pastels, nil
}

// NewAllocator builds a colour allocator from the embedded tables.
func NewAllocator(randomAttempts int) (*palette.Allocator, error) {
	presets, err := Presets()
	if err != nil {
		return nil, err
	}

	pastels, err := Pastels()
	if err != nil {
		return nil, err
	}

	return palette.NewAllocator(presets, pastels, randomAttempts, nil), nil
}
