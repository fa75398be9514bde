// Package config loads the sheetsync server configuration from a TOML file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
)

// Backends selectable with Backend
const (
	BackendGoogleSheets = "googlesheets"
	BackendExcel        = "excel"
	BackendMemory       = "memory"
)

// AppConfig is the server configuration
type AppConfig struct {
	Server       ServerConfig       `toml:"server"`
	Backend      string             `toml:"backend"`
	GoogleSheets GoogleSheetsConfig `toml:"googlesheets"`
	Excel        ExcelConfig        `toml:"excel"`
	Sync         sheetsync.Config   `toml:"sync"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	SyncTimeout Duration `toml:"sync_timeout"` // 0 disables the per-request deadline
	Debug       bool     `toml:"debug"`
}

// GoogleSheetsConfig configures the Google Sheets backend
type GoogleSheetsConfig struct {
	Credentials      string `toml:"credentials"` // service account JSON; empty uses application default credentials
	ClientEmail      string `toml:"client_email,omitempty"`
	PrivateKey       string `toml:"private_key,omitempty"` // with ClientEmail, replaces Credentials
	ValueInputOption string `toml:"value_input_option"`
}

// Auth returns the credential selection for the Google Sheets store
func (g GoogleSheetsConfig) Auth() googlesheets.Credentials {
	return googlesheets.Credentials{
		KeyFile:     g.Credentials,
		ClientEmail: g.ClientEmail,
		PrivateKey:  g.PrivateKey,
	}
}

// ExcelConfig configures the local workbook backend
type ExcelConfig struct {
	Dir           string `toml:"dir"`
	CreateMissing bool   `toml:"create_missing"`
}

// Duration is a time.Duration written as a string such as "30s" in TOML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Backend: BackendGoogleSheets,
		GoogleSheets: GoogleSheetsConfig{
			ValueInputOption: googlesheets.InputRaw,
		},
		Excel: ExcelConfig{
			Dir: "data",
		},
		Sync: sheetsync.DefaultConfig(),
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *AppConfig) applyEnv() error {
	if v := os.Getenv("SHEETSYNC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SHEETSYNC_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("SHEETSYNC_EXCEL_DIR"); v != "" {
		c.Excel.Dir = v
	}
	if v := os.Getenv("SHEETSYNC_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHEETSYNC_DEBUG %q: %w", v, err)
		}
		c.Server.Debug = debug
	}
	if v := os.Getenv("SHEETSYNC_CLIENT_EMAIL"); v != "" {
		c.GoogleSheets.ClientEmail = v
	}
	if v := os.Getenv("SHEETSYNC_PRIVATE_KEY"); v != "" {
		c.GoogleSheets.PrivateKey = v
	}
	if c.GoogleSheets.Credentials == "" {
		c.GoogleSheets.Credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return nil
}

// Validate checks the configuration is usable
func (c *AppConfig) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.SyncTimeout.Duration < 0 {
		return fmt.Errorf("server.sync_timeout must not be negative: %s", c.Server.SyncTimeout)
	}

	switch c.Backend {
	case BackendGoogleSheets:
		gs := googlesheets.Config{ValueInputOption: c.GoogleSheets.ValueInputOption}
		if err := gs.Validate(); err != nil {
			return fmt.Errorf("googlesheets: %w", err)
		}
		if (c.GoogleSheets.ClientEmail == "") != (c.GoogleSheets.PrivateKey == "") {
			return errors.New("googlesheets.client_email and googlesheets.private_key must be set together")
		}
	case BackendExcel:
		if c.Excel.Dir == "" {
			return errors.New("excel.dir is required for the excel backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

// Save writes the configuration as TOML. The file is private to the owner
// since it may hold a private key.
func Save(path string, config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
