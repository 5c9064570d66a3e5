// Package peerstore keeps the registered peer set in a bolt database so a
// restarted node knows its peers again.
package peerstore

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/iov-one/weave/errors"
)

var bucketPeers = []byte("peers")

// ErrStore is returned when the bolt database cannot be used.
var ErrStore = errors.Register(3200, "peer store")

// Store persists network locations. It implements consensus.PeerStore.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the bolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(ErrStore, "open %s: %s", path, err)
	}
	err = db.Update(func(btx *bolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(bucketPeers)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(ErrStore, "create bucket: %s", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all stored peers in key order.
func (s *Store) Load() ([]string, error) {
	var peers []string
	err := s.db.View(func(btx *bolt.Tx) error {
		return btx.Bucket(bucketPeers).ForEach(func(k, _ []byte) error {
			peers = append(peers, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(ErrStore, "load peers: %s", err)
	}
	return peers, nil
}

// Add stores peer together with the time it was registered. Adding a known
// peer keeps the original registration time.
func (s *Store) Add(peer string) error {
	err := s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket(bucketPeers)
		if b.Get([]byte(peer)) != nil {
			return nil
		}
		stamp, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return b.Put([]byte(peer), stamp)
	})
	if err != nil {
		return errors.Wrapf(ErrStore, "add peer %s: %s", peer, err)
	}
	return nil
}
