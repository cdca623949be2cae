package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.StateRepo = (*Repo)(nil)

var (
	bucket = []byte("sitewatch")
	key    = []byte("snapshot")
)

// Repo keeps the snapshot under a single key in a bbolt database.
type Repo struct {
	db *bbolt.DB
}

func Open(path string) (*Repo, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init bolt bucket: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Load(ctx context.Context) (domain.Snapshot, error) {
	s := domain.NewSnapshot()
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &s)
	})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return s.Clone(), nil
}

func (r *Repo) Save(ctx context.Context, s domain.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, b)
	})
}

func (r *Repo) Close() error { return r.db.Close() }
