package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("analyzer")

// Bolt keeps the snapshot as a single value in a bbolt database.
type Bolt struct {
	db *bolt.DB
}

var _ analyzer.Persister = (*Bolt)(nil)

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Load(ctx context.Context) (*analyzer.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(analyzer.StorageKey)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}
	return analyzer.Decode(data)
}

func (b *Bolt) Save(_ context.Context, snap *analyzer.Snapshot) error {
	data, err := analyzer.Encode(snap)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(analyzer.StorageKey), data)
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
