package googlesheets

import "fmt"

const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"
)

// Config represents configuration specific to the Google Sheets store
type Config struct {
	ValueInputOption string // RAW or USER_ENTERED (default: RAW)
}

// Validate checks the configuration and fills defaults
func (c *Config) Validate() error {
	switch c.ValueInputOption {
	case "":
		c.ValueInputOption = InputRaw
	case InputRaw, InputUserEntered:
	default:
		return fmt.Errorf("invalid value input option %q (expected: %s or %s)", c.ValueInputOption, InputRaw, InputUserEntered)
	}
	return nil
}
