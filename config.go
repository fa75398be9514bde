package sheetsync

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	DefaultSheetName       = "Data"
	DefaultMetadataSheet   = "_Metadata"
	DefaultTimestampLayout = "2006-01-02 15:04:05"
	DefaultHeaderBold      = true
	DefaultHeaderBg        = "#4285f4"
	DefaultHeaderFg        = "#ffffff"
	DefaultFrozenRows      = 1
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// HeaderStyle is the visual policy applied to row 1 of the data tab
type HeaderStyle struct {
	Bold       bool   `toml:"bold"`
	Background string `toml:"background"` // #rrggbb
	Foreground string `toml:"foreground"` // #rrggbb
	AutoResize bool   `toml:"auto_resize"`
	FrozenRows int    `toml:"frozen_rows"`
}

// Validate checks the colors are #rrggbb and FrozenRows is not negative
func (s HeaderStyle) Validate() error {
	if !hexColor.MatchString(s.Background) {
		return fmt.Errorf("invalid header background %q", s.Background)
	}
	if !hexColor.MatchString(s.Foreground) {
		return fmt.Errorf("invalid header foreground %q", s.Foreground)
	}
	if s.FrozenRows < 0 {
		return fmt.Errorf("invalid frozen rows %d", s.FrozenRows)
	}
	return nil
}

// ParseHexColor splits a #rrggbb color into its components
func ParseHexColor(s string) (r, g, b uint8, err error) {
	if !hexColor.MatchString(s) {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// Config represents configuration for the Syncer
type Config struct {
	DefaultSheetName string      `toml:"default_sheet_name"` // Tab used when a request omits sheetName (default: Data)
	MetadataSheet    string      `toml:"metadata_sheet"`     // Reserved tab for sync metadata (default: _Metadata)
	TimestampLayout  string      `toml:"timestamp_layout"`   // time layout of the Last Updated cell
	Header           HeaderStyle `toml:"header"`
}

// DefaultConfig returns the configuration matching the original deployment
func DefaultConfig() Config {
	return Config{
		DefaultSheetName: DefaultSheetName,
		MetadataSheet:    DefaultMetadataSheet,
		TimestampLayout:  DefaultTimestampLayout,
		Header: HeaderStyle{
			Bold:       DefaultHeaderBold,
			Background: DefaultHeaderBg,
			Foreground: DefaultHeaderFg,
			AutoResize: true,
			FrozenRows: DefaultFrozenRows,
		},
	}
}

// withDefaults fills zero values from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultSheetName == "" {
		c.DefaultSheetName = d.DefaultSheetName
	}
	if c.MetadataSheet == "" {
		c.MetadataSheet = d.MetadataSheet
	}
	if c.TimestampLayout == "" {
		c.TimestampLayout = d.TimestampLayout
	}
	if c.Header == (HeaderStyle{}) {
		c.Header = d.Header
	}
	return c
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	if c.DefaultSheetName == c.MetadataSheet {
		return fmt.Errorf("default sheet name and metadata sheet must differ (%q)", c.MetadataSheet)
	}
	return c.Header.Validate()
}
