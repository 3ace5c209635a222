// ABOUTME: Google Sheets OAuth setup command
// ABOUTME: Prints the consent URL and caches the exchanged token
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/cbaraj14/hubspot-reporting/sheets"
)

// DefaultSheetsTokenPath is where the Google token is cached.
func DefaultSheetsTokenPath() string {
	return filepath.Join(xdg.DataHome, "hubrep", "sheets-token.json")
}

// SheetsAuthCommand runs the out-of-band OAuth flow for Sheets export.
func SheetsAuthCommand(args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	credentials := fs.String("credentials", "credentials.json", "Google OAuth credentials file")
	tokenPath := fs.String("token", DefaultSheetsTokenPath(), "Where to cache the token")
	_ = fs.Parse(args)

	config, err := sheets.LoadConfig(*credentials)
	if err != nil {
		return err
	}

	fmt.Println("Visit this URL and authorize spreadsheet access:")
	fmt.Printf("\n%s\n\n", sheets.AuthURL(config))
	fmt.Print("Paste the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading auth code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	if err := sheets.ExchangeAndSave(context.Background(), config, code, *tokenPath); err != nil {
		return err
	}

	fmt.Printf("Token saved to %s\n", *tokenPath)
	return nil
}
