package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/provtab/internal/core"
)

// LoadPalette reads a palette file and merges it over the default palette.
// An empty path returns the default palette.
//
//	hidden: "#cccccc"
//	generated: "#eeeeee"
func LoadPalette(path string) (core.Palette, error) {
	if path == "" {
		return core.DefaultPalette(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette file: %w", err)
	}
	return ParsePalette(data)
}

// ParsePalette parses palette YAML and validates the merged result.
func ParsePalette(data []byte) (core.Palette, error) {
	var overrides core.Palette
	if err := decodeStrict(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse palette: %w", err)
	}
	p := core.DefaultPalette().Merge(overrides)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeStrict decodes YAML rejecting unknown fields. An empty document is
// not an error.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
