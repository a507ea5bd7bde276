package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var bucketAppState = []byte("app_state")

// BoltSlot stores the snapshot under one key of a bbolt bucket.
type BoltSlot struct {
	db   *bolt.DB
	key  []byte
	path string
}

// NewBoltSlot opens or creates a bbolt database at path.
func NewBoltSlot(path, key string) (*BoltSlot, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, unavailable(errors.New("bolt db path is required"), "open bolt")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, unavailable(err, "create bolt dir")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, unavailable(err, "open bolt")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAppState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, unavailable(err, "init bolt schema")
	}
	return &BoltSlot{db: db, key: []byte(key), path: path}, nil
}

func (b *BoltSlot) Load(ctx context.Context) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketAppState)
		if bk == nil {
			return nil
		}
		raw := bk.Get(b.key)
		if len(raw) == 0 {
			return nil
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, unavailable(err, "load snapshot")
	}
	if out == nil {
		return nil, ErrNoSnapshot
	}
	return out, nil
}

func (b *BoltSlot) Save(ctx context.Context, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists(bucketAppState)
		if err != nil {
			return err
		}
		return bk.Put(b.key, data)
	})
	if err != nil {
		return unavailable(err, "save snapshot")
	}
	return nil
}

func (b *BoltSlot) Path() string { return b.path }

func (b *BoltSlot) Backend() string { return "bolt" }

func (b *BoltSlot) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
