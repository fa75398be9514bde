package excel

// Config holds configuration for the Excel store
type Config struct {
	Dir           string // Directory holding one <spreadsheetId>.xlsx per document
	CreateMissing bool   // Create unknown documents on Open instead of failing
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Dir == "" {
		return ErrMissingDir
	}
	return nil
}
