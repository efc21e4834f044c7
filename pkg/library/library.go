// Package library keeps a local catalog of recordings in a pebble database.
// Each recording gets a KSUID, so listings come back in import order, and is
// indexed by content hash so the same recording is never stored twice.
//
// KSUIDs only carry one-second resolution and a random payload, so ids issued
// within the same second are bumped past the last issued id to keep the
// entry keys strictly increasing.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/lmptool/pkg/inspect"
)

var (
	// ErrNotFound is returned for ids that are not in the library.
	ErrNotFound = errors.New("recording not found")
	// ErrInvalidID is returned for ids that are not KSUIDs.
	ErrInvalidID = errors.New("invalid recording id")
	// ErrDuplicate is returned by Import when identical content is already
	// stored. The existing entry is returned alongside it.
	ErrDuplicate = errors.New("recording already in library")
)

// Key prefixes.
const (
	prefixRaw   = "r/"
	prefixEntry = "e/"
	prefixHash  = "h/"
)

// Entry is the catalog record kept for each recording.
type Entry struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Hash       string        `json:"hash"`
	Version    int           `json:"version"`
	Layout     string        `json:"layout"`
	Players    int           `json:"players"`
	Tics       int           `json:"tics"`
	Duration   time.Duration `json:"duration_ns"`
	Size       int           `json:"size"`
	Warnings   []string      `json:"warnings,omitempty"`
	ImportedAt time.Time     `json:"imported_at"`
}

// Library is a pebble-backed recording store.
type Library struct {
	db   *pebble.DB
	mu   sync.Mutex  // serializes the dedup check with its write
	last ksuid.KSUID // highest id issued so far, guarded by mu
}

// Open opens or creates a library in dir.
func Open(dir string) (*Library, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	l := &Library{db: db}
	if l.last, err = l.lastID(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// lastID returns the id of the newest stored entry, or ksuid.Nil.
func (l *Library) lastID() (ksuid.KSUID, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixEntry),
		UpperBound: prefixUpperBound(prefixEntry),
	})
	if err != nil {
		return ksuid.Nil, err
	}
	defer iter.Close()

	if !iter.Last() {
		return ksuid.Nil, iter.Error()
	}
	id, err := ksuid.FromBytes(iter.Key()[len(prefixEntry):])
	if err != nil {
		return ksuid.Nil, fmt.Errorf("corrupt entry key %x: %w", iter.Key(), err)
	}
	return id, nil
}

// nextID issues an id greater than every id issued before it. Callers hold mu.
func (l *Library) nextID() ksuid.KSUID {
	id := ksuid.New()
	if ksuid.Compare(id, l.last) <= 0 {
		id = l.last.Next()
	}
	l.last = id
	return id
}

// Close releases the database.
func (l *Library) Close() error {
	return l.db.Close()
}

// Import validates data as a recording and stores it under a new id.
func (l *Library) Import(name string, data []byte) (*Entry, error) {
	summary, err := inspect.Summarize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recording: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.get([]byte(prefixHash + summary.Hash))
	if err == nil {
		id, err := ksuid.FromBytes(existing)
		if err != nil {
			return nil, fmt.Errorf("corrupt hash index for %s: %w", summary.Hash, err)
		}
		entry, err := l.entry(id)
		if err != nil {
			return nil, err
		}
		return entry, ErrDuplicate
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := l.nextID()
	entry := &Entry{
		ID:         id.String(),
		Name:       name,
		Hash:       summary.Hash,
		Version:    summary.Version,
		Layout:     summary.Layout,
		Players:    summary.Players,
		Tics:       summary.Tics,
		Duration:   summary.Duration,
		Size:       summary.Size,
		Warnings:   summary.Warnings,
		ImportedAt: id.Time().UTC(),
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Set(rawKey(id), data, nil); err != nil {
		return nil, err
	}
	if err := b.Set(entryKey(id), encoded, nil); err != nil {
		return nil, err
	}
	if err := b.Set([]byte(prefixHash+summary.Hash), id.Bytes(), nil); err != nil {
		return nil, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to store recording: %w", err)
	}

	return entry, nil
}

// Get returns the entry and raw bytes for id.
func (l *Library) Get(id string) (*Entry, []byte, error) {
	kid, err := parseID(id)
	if err != nil {
		return nil, nil, err
	}

	entry, err := l.entry(kid)
	if err != nil {
		return nil, nil, err
	}
	data, err := l.get(rawKey(kid))
	if err != nil {
		return nil, nil, err
	}
	return entry, data, nil
}

// List returns every entry in import order.
func (l *Library) List() ([]*Entry, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixEntry),
		UpperBound: prefixUpperBound(prefixEntry),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	entries := []*Entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		var entry Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			return nil, fmt.Errorf("corrupt entry %x: %w", iter.Key(), err)
		}
		entries = append(entries, &entry)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes a recording and its index entries.
func (l *Library) Delete(id string) error {
	kid, err := parseID(id)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.entry(kid)
	if err != nil {
		return err
	}

	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Delete(rawKey(kid), nil); err != nil {
		return err
	}
	if err := b.Delete(entryKey(kid), nil); err != nil {
		return err
	}
	if err := b.Delete([]byte(prefixHash+entry.Hash), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (l *Library) entry(id ksuid.KSUID) (*Entry, error) {
	data, err := l.get(entryKey(id))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupt entry %s: %w", id, err)
	}
	return &entry, nil
}

// get copies the value out, since pebble only guarantees it until the closer
// is closed.
func (l *Library) get(key []byte) ([]byte, error) {
	value, closer, err := l.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func parseID(id string) (ksuid.KSUID, error) {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return kid, nil
}

func rawKey(id ksuid.KSUID) []byte {
	return append([]byte(prefixRaw), id.Bytes()...)
}

func entryKey(id ksuid.KSUID) []byte {
	return append([]byte(prefixEntry), id.Bytes()...)
}

func prefixUpperBound(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}
