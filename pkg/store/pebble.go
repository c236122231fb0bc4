package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"civicdesk/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// seq reduces key collisions when multiple records share the same
// nanosecond timestamp.
var seq uint64

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// timeKey returns a sortable suffix from padded nanos plus a process-wide
// sequence so same-nanosecond writes keep a stable order.
func timeKey(ts time.Time) string {
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("%020d-%06d", ts.UTC().UnixNano(), s)
}

func ensureOpen() error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return nil
}

func getRaw(key string) ([]byte, error) {
	if err := ensureOpen(); err != nil {
		return nil, err
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	closer.Close()
	return out, nil
}

func setRaw(key string, value []byte) error {
	if err := ensureOpen(); err != nil {
		return err
	}
	return db.Set([]byte(key), value, pebble.Sync)
}

func deleteRaw(key string) error {
	if err := ensureOpen(); err != nil {
		return err
	}
	return db.Delete([]byte(key), pebble.Sync)
}

// scanPrefix walks all keys with the given prefix in key order and calls fn
// with a copy of each key and value. Returning false stops the scan.
func scanPrefix(prefix string, fn func(key string, value []byte) bool) error {
	if err := ensureOpen(); err != nil {
		return err
	}
	p := []byte(prefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(p); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), p) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		if !fn(string(iter.Key()), v) {
			break
		}
	}
	return iter.Error()
}

// newBatch returns a write batch for multi-key atomic commits.
func newBatch() (*pebble.Batch, error) {
	if err := ensureOpen(); err != nil {
		return nil, err
	}
	return db.NewBatch(), nil
}

func commitBatch(b *pebble.Batch) error {
	return b.Commit(pebble.Sync)
}
