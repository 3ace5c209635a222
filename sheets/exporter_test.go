// ABOUTME: Tests for the Sheets value-grid conversion and token cache
// ABOUTME: Exercises the API-free pieces of the exporter
package sheets

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/cbaraj14/hubspot-reporting/report"
)

func TestValueRows(t *testing.T) {
	table := &report.Table{
		Header: []string{"Company", "2024-Jul", "Total Revenue"},
		Rows: [][]any{
			{"Acme Corp", 1000.0, 1000.0},
			{"Beta LLC", 0.0, 0.0},
		},
		Totals: []any{"Total", 1000.0, 1000.0},
	}

	values := valueRows(table)
	require.Len(t, values, 4)

	assert.Equal(t, []interface{}{"Company", "2024-Jul", "Total Revenue"}, values[0])
	assert.Equal(t, []interface{}{"Acme Corp", 1000.0, 1000.0}, values[1])
	assert.Equal(t, []interface{}{"Total", 1000.0, 1000.0}, values[3])
}

func TestValueRowsNoTotals(t *testing.T) {
	table := &report.Table{
		Header: []string{"Company"},
		Rows:   [][]any{{"Acme Corp"}},
	}

	values := valueRows(table)
	if len(values) != 2 {
		t.Errorf("got %d value rows, want 2", len(values))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{
		AccessToken:  "abc",
		RefreshToken: "def",
		Expiry:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, SaveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.AccessToken)
	assert.Equal(t, "def", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(token.Expiry))
}

func TestLoadTokenMissing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
