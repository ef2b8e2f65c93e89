// Package dedup decides whether a candidate violation is new enough to be
// persisted. It performs no I/O; the daily ledger is consulted through
// LedgerReader and short-term repeats are suppressed by a cooldown cache.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/dressguard/dressguard/internal/domain"
)

const (
	ReasonApproved           = "approved"
	ReasonNoFace             = "no face detected"
	ReasonAlreadyLogged      = "already logged today, same violation"
	ReasonDifferentViolation = "different violation, updating"
	ReasonCooldown           = "cooldown active"
)

// DefaultSweepInterval is how often expired cooldown records are dropped.
const DefaultSweepInterval = 5 * time.Second

type LedgerReader interface {
	IsLoggedToday(identity string) bool
	Items(identity string) []string
}

type Decision struct {
	Approve        bool
	Reason         string
	DeletePrevious []string
}

// Deduplicator is not safe for concurrent use; the violation logger holds one
// lock around it and the ledger.
type Deduplicator struct {
	ledger        LedgerReader
	cooldown      time.Duration
	sweepInterval time.Duration
	lastSweep     time.Time
	cache         map[string]time.Time
}

func New(ledger LedgerReader, cooldown time.Duration) *Deduplicator {
	if cooldown < time.Second {
		cooldown = time.Second
	}
	return &Deduplicator{
		ledger:        ledger,
		cooldown:      cooldown,
		sweepInterval: DefaultSweepInterval,
		cache:         make(map[string]time.Time),
	}
}

// Evaluate decides on a frame with the given known identities, number of
// unrecognized faces and non-compliant items.
func (d *Deduplicator) Evaluate(identified []string, unknownCount int, items []string, now time.Time) Decision {
	if len(identified) == 0 && unknownCount == 0 {
		return Decision{Reason: ReasonNoFace}
	}

	d.sweep(now)

	if decision, ok := d.checkDailyLimit(identified, items); ok {
		return decision
	}

	key := CooldownKey(identified, unknownCount, items)
	if last, ok := d.cache[key]; ok && now.Sub(last) < d.cooldown {
		return Decision{Reason: ReasonCooldown}
	}

	d.cache[key] = now
	return Decision{Approve: true, Reason: ReasonApproved}
}

// checkDailyLimit applies the once-per-day rule for known identities. The
// first identity already logged today decides the outcome.
func (d *Deduplicator) checkDailyLimit(identified []string, items []string) (Decision, bool) {
	current := normalize(items)

	for _, name := range identified {
		if name == domain.Unknown || !d.ledger.IsLoggedToday(name) {
			continue
		}
		if sameItems(normalize(d.ledger.Items(name)), current) {
			return Decision{Reason: ReasonAlreadyLogged}, true
		}
		return Decision{
			Approve:        true,
			Reason:         ReasonDifferentViolation,
			DeletePrevious: d.superseded(identified, current),
		}, true
	}

	return Decision{}, false
}

// superseded lists every known identity logged today with a different item set.
func (d *Deduplicator) superseded(identified []string, current []string) []string {
	seen := make(map[string]struct{}, len(identified))
	var out []string
	for _, name := range identified {
		if name == domain.Unknown {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if d.ledger.IsLoggedToday(name) && !sameItems(normalize(d.ledger.Items(name)), current) {
			out = append(out, name)
		}
	}
	return out
}

func (d *Deduplicator) sweep(now time.Time) {
	if now.Sub(d.lastSweep) < d.sweepInterval {
		return
	}
	d.lastSweep = now
	for key, last := range d.cache {
		if now.Sub(last) >= d.cooldown {
			delete(d.cache, key)
		}
	}
}

// SetCooldown changes the suppression window. Values under one second are
// raised to one second.
func (d *Deduplicator) SetCooldown(cooldown time.Duration) {
	if cooldown < time.Second {
		cooldown = time.Second
	}
	d.cooldown = cooldown
}

func (d *Deduplicator) Cooldown() time.Duration {
	return d.cooldown
}

// Clear forgets every cooldown record.
func (d *Deduplicator) Clear() {
	d.cache = make(map[string]time.Time)
}

// Len returns the number of cooldown records, including not yet swept ones.
func (d *Deduplicator) Len() int {
	return len(d.cache)
}

// CooldownKey hashes the identity set, with one Unknown per unrecognized face,
// together with the item set. Order of either input does not matter.
func CooldownKey(identified []string, unknownCount int, items []string) string {
	names := make([]string, 0, len(identified)+unknownCount)
	names = append(names, identified...)
	for i := 0; i < unknownCount; i++ {
		names = append(names, domain.Unknown)
	}
	sort.Strings(names)

	sortedItems := append([]string(nil), items...)
	sort.Strings(sortedItems)

	sum := sha256.Sum256([]byte(strings.Join(names, ",") + ":" + strings.Join(sortedItems, ",")))
	return hex.EncodeToString(sum[:])[:16]
}

func normalize(items []string) []string {
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

func sameItems(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
