// Package ledger keeps the per-day record of which identities already had a
// violation persisted, with which items, and where the evidence image lives.
//
// The ledger is not safe for concurrent use; callers serialize access.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio"
)

const dateLayout = "2006-01-02"

// Entry is the on-disk shape of one identity's record.
type Entry struct {
	Date     string   `json:"date"`
	Items    []string `json:"items"`
	Filepath string   `json:"filepath"`
}

// Record is an Entry together with its identity, as returned by Snapshot.
type Record struct {
	Identity string   `json:"identity"`
	Date     string   `json:"date"`
	Items    []string `json:"items"`
	Filepath string   `json:"filepath"`
}

type Ledger struct {
	path    string
	entries map[string]Entry
	now     func() time.Time
	logger  *slog.Logger

	// stale counts entries skipped at load that are still on disk
	stale int
}

type Option func(*Ledger)

// WithClock overrides the time source used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Open loads the ledger stored at path. A missing file yields an empty ledger;
// an unreadable one is logged and replaced on the next write.
func Open(path string, logger *slog.Logger, opts ...Option) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	l := &Ledger{
		path:    path,
		entries: make(map[string]Entry),
		now:     time.Now,
		logger:  logger.With("component", "ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.load(); err != nil {
		l.logger.Error("failed to load daily ledger, starting empty", "path", path, "error", err)
		l.entries = make(map[string]Entry)
	}

	return l, nil
}

func (l *Ledger) today() string {
	return l.now().Format(dateLayout)
}

// load keeps only entries dated today. Stale evidence files are left on disk.
func (l *Ledger) load() error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}

	today := l.today()
	for identity, value := range raw {
		entry, err := decodeEntry(value)
		if err != nil {
			l.logger.Warn("skipping malformed ledger entry", "identity", identity, "error", err)
			continue
		}
		if entry.Date != today {
			l.stale++
			continue
		}
		l.entries[identity] = entry
	}

	l.logger.Info("daily ledger loaded", "path", l.path, "entries", len(l.entries))
	return nil
}

// decodeEntry accepts both the object form and the older bare date string.
func decodeEntry(value json.RawMessage) (Entry, error) {
	var date string
	if err := json.Unmarshal(value, &date); err == nil {
		return Entry{Date: date, Items: []string{}}, nil
	}

	var entry Entry
	if err := json.Unmarshal(value, &entry); err != nil {
		return Entry{}, err
	}
	if entry.Items == nil {
		entry.Items = []string{}
	}
	return entry, nil
}

// IsLoggedToday reports whether identity has an entry for today. An entry from
// another day is dropped from the ledger; its evidence file is not touched.
func (l *Ledger) IsLoggedToday(identity string) bool {
	entry, ok := l.entries[identity]
	if !ok {
		return false
	}
	if entry.Date != l.today() {
		delete(l.entries, identity)
		l.logger.Debug("expired ledger entry", "identity", identity, "date", entry.Date)
		return false
	}
	return true
}

// Items returns the violation items recorded for identity today, or nil.
func (l *Ledger) Items(identity string) []string {
	if !l.IsLoggedToday(identity) {
		return nil
	}
	items := l.entries[identity].Items
	out := make([]string, len(items))
	copy(out, items)
	return out
}

// EvidencePath returns the evidence file recorded for identity today.
func (l *Ledger) EvidencePath(identity string) (string, bool) {
	if !l.IsLoggedToday(identity) {
		return "", false
	}
	return l.entries[identity].Filepath, true
}

// MarkLogged upserts today's entry for identity and persists the ledger.
func (l *Ledger) MarkLogged(identity string, items []string, evidencePath string) error {
	l.entries[identity] = Entry{
		Date:     l.today(),
		Items:    normalizeItems(items),
		Filepath: evidencePath,
	}
	return l.persist()
}

// Delete removes identity's entry and its evidence file. A file that is
// already gone is not an error. The file stays when the entry is from another
// day or another entry still references it.
func (l *Ledger) Delete(identity string) error {
	entry, ok := l.entries[identity]
	if !ok {
		return nil
	}
	delete(l.entries, identity)

	switch {
	case entry.Filepath == "":
	case entry.Date != l.today():
		l.logger.Debug("expired ledger entry, keeping evidence", "identity", identity, "date", entry.Date)
	case l.referenced(entry.Filepath):
		l.logger.Debug("evidence shared with another entry, keeping file", "identity", identity, "path", entry.Filepath)
	default:
		if err := os.Remove(entry.Filepath); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.logger.Error("failed to delete previous evidence", "identity", identity, "path", entry.Filepath, "error", err)
		} else if err == nil {
			l.logger.Info("deleted previous evidence", "identity", identity, "path", entry.Filepath)
		}
	}

	return l.persist()
}

// referenced reports whether any remaining entry points at path.
func (l *Ledger) referenced(path string) bool {
	for _, entry := range l.entries {
		if entry.Filepath == path {
			return true
		}
	}
	return false
}

// PurgeExpired drops every entry not dated today, including those skipped at
// load, and persists the result.
func (l *Ledger) PurgeExpired() (int, error) {
	today := l.today()
	purged := l.stale
	for identity, entry := range l.entries {
		if entry.Date != today {
			delete(l.entries, identity)
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, l.persist()
}

// Snapshot returns today's entries sorted by identity.
func (l *Ledger) Snapshot() []Record {
	today := l.today()
	records := make([]Record, 0, len(l.entries))
	for identity, entry := range l.entries {
		if entry.Date != today {
			continue
		}
		items := make([]string, len(entry.Items))
		copy(items, entry.Items)
		records = append(records, Record{
			Identity: identity,
			Date:     entry.Date,
			Items:    items,
			Filepath: entry.Filepath,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Identity < records[j].Identity
	})
	return records
}

// Len returns the number of entries dated today.
func (l *Ledger) Len() int {
	today := l.today()
	n := 0
	for _, entry := range l.entries {
		if entry.Date == today {
			n++
		}
	}
	return n
}

// persist rewrites the whole ledger through a temp file and rename.
func (l *Ledger) persist() error {
	data, err := json.Marshal(l.entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := renameio.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	l.stale = 0
	return nil
}

func normalizeItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
