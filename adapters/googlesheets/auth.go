package googlesheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Credential sources reported by Credentials.Source
const (
	SourceServiceAccount = "service-account"
	SourceKeyFile        = "key-file"
	SourceDefault        = "application-default"
)

// Credentials selects how a Store authenticates.
//
// An inline service account (ClientEmail with PrivateKey) takes precedence
// over KeyFile. With neither, application default credentials are used.
type Credentials struct {
	KeyFile     string // service account JSON key
	ClientEmail string
	PrivateKey  string // PEM; escaped "\n" sequences are accepted
}

// Source reports which credential source Connect will use
func (c Credentials) Source() string {
	switch {
	case c.ClientEmail != "" && c.PrivateKey != "":
		return SourceServiceAccount
	case c.KeyFile != "":
		return SourceKeyFile
	default:
		return SourceDefault
	}
}

// Identity returns the account spreadsheets must be shared with. It is empty
// for application default credentials or an unreadable key file.
func (c Credentials) Identity() string {
	switch c.Source() {
	case SourceServiceAccount:
		return c.ClientEmail
	case SourceKeyFile:
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return ""
		}
		email, _ := serviceAccountEmail(data)
		return email
	default:
		return ""
	}
}

// Connect creates a Store authenticated from creds
func Connect(ctx context.Context, config Config, creds Credentials) (*Store, error) {
	switch creds.Source() {
	case SourceServiceAccount:
		return NewWithServiceAccountKey(ctx, config, creds.ClientEmail, creds.PrivateKey)
	case SourceKeyFile:
		return NewWithJSONKeyFile(ctx, config, creds.KeyFile)
	default:
		return NewWithDefaultCredentials(ctx, config)
	}
}

// NewWithJSONKeyFile reads a service account key from path
func NewWithJSONKeyFile(ctx context.Context, config Config, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("key file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	return NewWithJSONKeyData(ctx, config, data)
}

// NewWithJSONKeyData authenticates with a service account key held in memory
func NewWithJSONKeyData(ctx context.Context, config Config, data []byte) (*Store, error) {
	if _, err := serviceAccountEmail(data); err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return NewStore(ctx, config, option.WithCredentials(creds))
}

// NewWithServiceAccountKey signs tokens with the given account's private key.
// The key is not parsed until the first API call.
func NewWithServiceAccountKey(ctx context.Context, config Config, email, privateKey string) (*Store, error) {
	if email == "" || privateKey == "" {
		return nil, errors.New("client email and private key are both required")
	}

	// Keys passed through environment variables often carry escaped newlines
	if !strings.Contains(privateKey, "\n") {
		privateKey = strings.ReplaceAll(privateKey, `\n`, "\n")
	}

	signer := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	return NewStore(ctx, config, option.WithTokenSource(signer.TokenSource(ctx)))
}

// NewWithDefaultCredentials uses the environment's application default
// credentials (gcloud login, GCE metadata or GOOGLE_APPLICATION_CREDENTIALS)
func NewWithDefaultCredentials(ctx context.Context, config Config) (*Store, error) {
	ts, err := google.DefaultTokenSource(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("no application default credentials: %w", err)
	}

	return NewStore(ctx, config, option.WithTokenSource(ts))
}

// serviceAccountEmail checks data is a service account key and returns its
// client email
func serviceAccountEmail(data []byte) (string, error) {
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("malformed key file: %w", err)
	}

	if key.Type != "service_account" {
		return "", fmt.Errorf("key type %q is not service_account", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return "", errors.New("key file lacks client_email or private_key")
	}

	return key.ClientEmail, nil
}
