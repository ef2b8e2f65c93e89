package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dressguard/dressguard/internal/ledger"
	"github.com/dressguard/dressguard/internal/violation"
)

func init() {
	color.NoColor = true
}

// seedLedger writes today's entries for alice (with evidence) and Unknown
func seedLedger(t *testing.T) (dir, evidence string) {
	t.Helper()
	dir = t.TempDir()
	evidence = filepath.Join(dir, "violation_20261019_101500_000_ab12cd34.jpg")
	require.NoError(t, os.WriteFile(evidence, []byte("jpeg"), 0o644))

	lg, err := ledger.Open(filepath.Join(dir, violation.LedgerFile), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, lg.MarkLogged("alice", []string{"shorts", "t-shirt"}, evidence))
	require.NoError(t, lg.MarkLogged("Unknown", []string{"shorts"}, ""))
	return dir, evidence
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLedgerShow(t *testing.T) {
	dir, _ := seedLedger(t)

	out, err := execute(t, "--folder", dir, "ledger", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "2 identities logged today")
	assert.Contains(t, out, "alice  shorts, t-shirt")
	assert.Contains(t, out, "evidence: violation_20261019_101500_000_ab12cd34.jpg")
	assert.Contains(t, out, "Unknown  shorts")
}

func TestLedgerShow_JSON(t *testing.T) {
	dir, _ := seedLedger(t)

	out, err := execute(t, "--folder", dir, "ledger", "show", "--json")
	require.NoError(t, err)

	var records []ledger.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Unknown", records[0].Identity)
	assert.Equal(t, "alice", records[1].Identity)
}

func TestLedgerShow_Empty(t *testing.T) {
	out, err := execute(t, "--folder", t.TempDir(), "ledger", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No violations logged today.")
}

func TestLedgerForget(t *testing.T) {
	dir, evidence := seedLedger(t)

	out, err := execute(t, "--folder", dir, "ledger", "forget", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "forgot alice")
	assert.NoFileExists(t, evidence)

	lg, err := ledger.Open(filepath.Join(dir, violation.LedgerFile), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.False(t, lg.IsLoggedToday("alice"))
	assert.True(t, lg.IsLoggedToday("Unknown"))
}

func TestLedgerForget_Missing(t *testing.T) {
	dir, _ := seedLedger(t)

	out, err := execute(t, "--folder", dir, "ledger", "forget", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "bob is not in today's ledger")
}

func TestLedgerForget_RequiresIdentity(t *testing.T) {
	_, err := execute(t, "--folder", t.TempDir(), "ledger", "forget")
	assert.Error(t, err)
}

func TestLedgerPurgeExpired(t *testing.T) {
	dir := t.TempDir()
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	today := time.Now().Format("2006-01-02")
	data := `{"alice": {"date": "` + yesterday + `", "items": ["shorts"], "filepath": ""},` +
		`"bob": {"date": "` + today + `", "items": ["t-shirt"], "filepath": ""}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, violation.LedgerFile), []byte(data), 0o644))

	out, err := execute(t, "--folder", dir, "ledger", "purge-expired")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 1 expired entries")

	out, err = execute(t, "--folder", dir, "ledger", "purge-expired")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to purge.")
}
