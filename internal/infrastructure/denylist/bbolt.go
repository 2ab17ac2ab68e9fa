// Package denylist records revoked session token ids in a BBolt file.
package denylist

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	usecase "portfolio/backend/internal/usecase/auth"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("revoked_tokens")

// Grace keeps an entry past its token's expiry, covering the verifier's
// clock-skew leeway.
const Grace = time.Minute

// Store implements usecase.Revoker. Each key is a token id and each value
// the unix expiry of that token; entries past expiry are dead weight and
// are removed by Prune.
type Store struct {
	db      *bbolt.DB
	nowFunc func() time.Time
}

var _ usecase.Revoker = (*Store)(nil)

// Open opens (or creates) the denylist database at path and prunes expired entries.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening denylist db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating denylist bucket: %w", err)
	}

	s := &Store{db: db, nowFunc: time.Now}
	if _, err := s.Prune(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Revoke marks tokenID as revoked until expiresAt plus Grace.
func (s *Store) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	expiresAt = expiresAt.Add(Grace)
	if !expiresAt.After(s.nowFunc()) {
		return nil
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(expiresAt.Unix()))
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(tokenID), buf[:])
	})
}

// IsRevoked reports whether tokenID is on the list and not yet expired.
func (s *Store) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(tokenID))
		if len(v) != 8 {
			return nil
		}
		exp := time.Unix(int64(binary.BigEndian.Uint64(v)), 0)
		revoked = s.nowFunc().Before(exp)
		return nil
	})
	return revoked, err
}

// Prune deletes entries whose token would have expired anyway.
func (s *Store) Prune(_ context.Context) (int, error) {
	now := s.nowFunc().Unix()
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(v) != 8 || int64(binary.BigEndian.Uint64(v)) <= now {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning denylist: %w", err)
	}
	return removed, nil
}
