package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// SyncState is a small on-disk ledger of which files have already been
// ingested, keyed by filename with the content hash as value. Re-running a
// sync skips files whose content has not changed.
type SyncState struct {
	db *badger.DB
}

// OpenState opens (or creates) the ledger at path.
func OpenState(path string) (*SyncState, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &SyncState{db: db}, nil
}

// ContentHash returns the hex sha256 of content, the value stored per file.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// IsProcessed reports whether filename was already ingested with exactly
// this content hash.
func (s *SyncState) IsProcessed(filename, hash string) (bool, error) {
	var stored string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(filename))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == hash, nil
}

// MarkProcessed records that filename was ingested with the given content
// hash.
func (s *SyncState) MarkProcessed(filename, hash string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(filename), []byte(hash))
	})
}

// Forget drops the ledger entry for filename, forcing reprocessing on the
// next sync.
func (s *SyncState) Forget(filename string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(filename))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close flushes and closes the underlying database.
func (s *SyncState) Close() error {
	return s.db.Close()
}
