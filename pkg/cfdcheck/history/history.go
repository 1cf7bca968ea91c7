// Package history provides a Badger DB-backed record of past evaluations.
//
// Recording is opt-in and the estimator never reads from it: an evaluation
// depends only on the profile it is given.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Key prefixes for different data types.
const (
	prefixEntry = "h:" // h:<unix nanos, 20 digits>:<id> -> compressed entry
	prefixID    = "i:" // i:<id> -> entry key
	schemaKey   = "m:__schema__"
)

// CurrentSchemaVersion is the on-disk layout version.
const CurrentSchemaVersion = 1

var (
	// ErrNotFound is returned when no entry matches an ID.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguousID is returned when an ID prefix matches several entries.
	ErrAmbiguousID = errors.New("ambiguous history entry id")
)

// Entry is one recorded evaluation.
type Entry struct {
	ID     string       `json:"id"`
	Time   time.Time    `json:"time"`
	Source string       `json:"source"`
	Report types.Report `json:"report"`
}

// ShortID returns the first eight characters of the ID.
func (e *Entry) ShortID() string {
	if len(e.ID) > 8 {
		return e.ID[:8]
	}
	return e.ID
}

// Store is the history storage backed by Badger DB.
type Store struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates a store in the directory at path.
func Open(path string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, enc: enc, dec: dec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the codecs and closes the store.
func (s *Store) Close() error {
	s.dec.Close()
	return errors.Join(s.enc.Close(), s.db.Close())
}

func (s *Store) ensureSchema() error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(schemaKey), []byte(fmt.Sprint(CurrentSchemaVersion)))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if string(val) != fmt.Sprint(CurrentSchemaVersion) {
				return fmt.Errorf("unsupported history schema version %s", val)
			}
			return nil
		})
	})
}

func entryKey(t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixEntry, t.UnixNano(), id))
}

// Record stores a report and returns the new entry.
func (s *Store) Record(report *types.Report, source string) (*Entry, error) {
	if report == nil {
		return nil, errors.New("nil report")
	}

	entry := &Entry{
		ID:     uuid.NewString(),
		Time:   s.now().UTC(),
		Source: source,
		Report: *report,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encoding history entry: %w", err)
	}
	value := s.enc.EncodeAll(data, nil)
	key := entryKey(entry.Time, entry.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set([]byte(prefixID+entry.ID), key)
	})
	if err != nil {
		return nil, fmt.Errorf("writing history entry: %w", err)
	}

	logging.Get("history").Debug("recorded evaluation", "id", entry.ID, "source", source)
	return entry, nil
}

func (s *Store) decode(val []byte) (*Entry, error) {
	data, err := s.dec.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing history entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding history entry: %w", err)
	}
	return &e, nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (s *Store) List(limit int) ([]*Entry, error) {
	var entries []*Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(append([]byte(prefixEntry), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry *Entry
			err := it.Item().Value(func(val []byte) error {
				var err error
				entry, err = s.decode(val)
				return err
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Get returns the entry with the given ID. A unique prefix of the ID (as
// printed by 'history list') is accepted.
func (s *Store) Get(id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	var entry *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixID + id)
		var key []byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if key != nil {
				return fmt.Errorf("%w: %s", ErrAmbiguousID, id)
			}
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			key = v
		}
		if key == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = s.decode(val)
			return err
		})
	})
	return entry, err
}

// Prune deletes entries recorded more than maxAge ago and returns how many
// were removed.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := entryKey(s.now().Add(-maxAge).UTC(), "")

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if bytes.Compare(key, cutoff) >= 0 {
				break
			}
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		id := key[bytes.LastIndexByte(key, ':')+1:]
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
		if err := wb.Delete(append([]byte(prefixID), id...)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}

	if len(stale) > 0 {
		logging.Get("history").Info("pruned history", "removed", len(stale), "max_age", maxAge)
	}
	return len(stale), nil
}

// Clear removes every recorded entry.
func (s *Store) Clear() error {
	return s.db.DropPrefix([]byte(prefixEntry), []byte(prefixID))
}
