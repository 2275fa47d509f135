package core

// palette.go maps the color names used by rule code to concrete hex values.
//
// Rule logic only ever refers to names (ColorHidden, ColorGenerated, ...).
// Backends and renderers resolve names through a Palette, so a workbook can
// be re-themed by loading a different palette file without touching rules.

import (
	"fmt"
	"strings"
)

// Palette color names.
const (
	ColorDefault       = "default"
	ColorDefaultText   = "defaultText"
	ColorHidden        = "hidden"
	ColorHiddenText    = "hiddenText"
	ColorGenerated     = "generated"
	ColorGeneratedText = "generatedText"
	ColorHeader        = "header"
	ColorHeaderText    = "headerText"
)

// Palette maps color names to hex strings ("#rrggbb").
type Palette map[string]string

// DefaultPalette returns the built-in palette.
func DefaultPalette() Palette {
	return Palette{
		ColorDefault:       "#ffffff",
		ColorDefaultText:   "#000000",
		ColorHidden:        "#d9d9d9",
		ColorHiddenText:    "#999999",
		ColorGenerated:     "#f3f3f3",
		ColorGeneratedText: "#7f7f7f",
		ColorHeader:        "#38761d",
		ColorHeaderText:    "#ffffff",
	}
}

// Hex resolves a color name. Unknown names resolve to the default background.
func (p Palette) Hex(name string) string {
	if hex, ok := p[name]; ok {
		return hex
	}
	return p[ColorDefault]
}

// Merge returns a copy of p with entries from other overriding it.
func (p Palette) Merge(other Palette) Palette {
	out := make(Palette, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Validate checks that every required name is present and every value is a hex color.
func (p Palette) Validate() error {
	var errs []string
	for _, name := range []string{
		ColorDefault, ColorDefaultText, ColorHidden, ColorHiddenText,
		ColorGenerated, ColorGeneratedText, ColorHeader, ColorHeaderText,
	} {
		hex, ok := p[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing color %q", name))
			continue
		}
		if !isHexColor(hex) {
			errs = append(errs, fmt.Sprintf("color %q: %q is not #rrggbb", name, hex))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid palette: %s", strings.Join(errs, "; "))
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range strings.ToLower(s[1:]) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
