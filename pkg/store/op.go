package store

import (
	"strconv"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// SetOp records the precedence of a user-defined binary operator glyph, so
// later sessions can parse expressions using it.
func (s *Store) SetOp(glyph rune, prec int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketOp))
		return b.Put([]byte(string(glyph)), []byte(strconv.Itoa(prec)))
	})
	return errors.Wrap(err, "cannot save operator")
}

// Ops returns the recorded operator precedences.
func (s *Store) Ops() (map[rune]int, error) {
	ops := make(map[rune]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketOp))
		return b.ForEach(func(k, v []byte) error {
			prec, err := strconv.Atoi(string(v))
			if err != nil {
				return errors.Wrapf(err, "corrupt precedence for operator %q", k)
			}
			for _, glyph := range string(k) {
				ops[glyph] = prec
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}
