// ABOUTME: OAuth plumbing for the Sheets exporter
// ABOUTME: Loads client credentials and caches the user token on disk
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// LoadConfig reads a Google OAuth client credentials file (the JSON
// downloaded from the cloud console) scoped to spreadsheet access.
func LoadConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}
	return config, nil
}

// LoadToken reads a cached token from tokenPath.
func LoadToken(tokenPath string) (*oauth2.Token, error) {
	f, err := os.Open(tokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decoding cached token: %w", err)
	}
	return token, nil
}

// SaveToken writes the token to tokenPath, creating parent directories
// as needed. Mode 0600: the token grants spreadsheet access.
func SaveToken(tokenPath string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0755); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	f, err := os.OpenFile(tokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}

// ClientFromSavedToken builds an HTTP client from a previously cached
// token. The caller is told to run the auth flow when no token exists.
func ClientFromSavedToken(ctx context.Context, config *oauth2.Config, tokenPath string) (*http.Client, error) {
	token, err := LoadToken(tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no cached token at %s, run the auth command first", tokenPath)
		}
		return nil, err
	}
	return config.Client(ctx, token), nil
}

// AuthURL returns the consent URL for the out-of-band auth flow.
func AuthURL(config *oauth2.Config) string {
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// ExchangeAndSave trades the pasted auth code for a token and caches
// it at tokenPath.
func ExchangeAndSave(ctx context.Context, config *oauth2.Config, code, tokenPath string) error {
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging auth code: %w", err)
	}
	return SaveToken(tokenPath, token)
}
