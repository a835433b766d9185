package resultstore

import (
	"fmt"
	"sync"

	"github.com/airhop/airhop/pkg/cfdf"
)

type Outcome string

const (
	// OutcomeAvailable carries at least one occurrence for the key.
	OutcomeAvailable Outcome = "available"
	// OutcomeNoneFound means the source was checked and had nothing.
	OutcomeNoneFound Outcome = "nonefound"
	// OutcomeFailed means every attempt for the key was exhausted. It
	// reconciles like OutcomeNoneFound but stays distinguishable for
	// diagnostics.
	OutcomeFailed Outcome = "failed"
)

type Entry struct {
	Outcome     Outcome                 `yaml:"outcome" groups:"basic"`
	Occurrences []cfdf.FlightOccurrence `yaml:"occurrences,omitempty" groups:"basic"`
}

func Key(legHash string, date string) string {
	return fmt.Sprintf("%s-%s", legHash, date)
}

// Store is the only resource shared across checker workers: a keyed map
// from (leg hash, date) to the checked outcome for that pair. A single
// coarse lock covers every operation; entries are written at most once per
// key under normal operation and idempotent re-writes are tolerated.
type Store struct {
	mutex   sync.Mutex
	entries map[string]Entry
}

func NewStore() *Store {
	return &Store{
		entries: map[string]Entry{},
	}
}

func (store *Store) Put(legHash string, date string, entry Entry) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.entries[Key(legHash, date)] = entry
}

func (store *Store) Get(legHash string, date string) (Entry, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	entry, ok := store.entries[Key(legHash, date)]
	return entry, ok
}

func (store *Store) Contains(legHash string, date string) bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	_, ok := store.entries[Key(legHash, date)]
	return ok
}

func (store *Store) Len() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	return len(store.entries)
}

// Snapshot copies the current entries into a plain map the caller owns.
// Safe to take while workers are still writing.
func (store *Store) Snapshot() map[string]Entry {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	snapshot := make(map[string]Entry, len(store.entries))
	for key, entry := range store.entries {
		snapshot[key] = entry
	}

	return snapshot
}

// EachOccurrence calls handler for every occurrence across every entry.
// Used by the reconciler to scan all checked results for a city pair.
func (store *Store) EachOccurrence(handler func(occurrence cfdf.FlightOccurrence)) {
	for _, entry := range store.Snapshot() {
		for _, occurrence := range entry.Occurrences {
			handler(occurrence)
		}
	}
}
