// Package store abstracts the persistent storage used by interactive kales:
// REPL command history and the user-defined operator table, so a new session
// can parse custom operators declared in earlier ones.
package store

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketCmd = "cmd"
	bucketOp  = "op"
)

var buckets = []string{bucketCmd, bucketOp}

// Store is a bbolt-backed store. It is intended for a single process;
// opening waits up to one second for any previous holder to release the
// file lock and fails after that.
type Store struct {
	db *bolt.DB
}

// Open opens the database file at path, creating it and its buckets if
// needed.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot initialize database")
	}
	return &Store{db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
