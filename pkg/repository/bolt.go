package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/model"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
	bucketRecords = []byte("records")

	keySessionID = []byte("id")
	keyProfile   = []byte("profile")
)

// boltRepo implements Repository on a single bbolt file. Records live in a
// nested bucket per session under "records", so clearing a session is a
// bucket delete and cannot touch other sessions.
type boltRepo struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the bolt database at path.
func NewBolt(path string) (Repository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open bolt database",
			goerr.T(model.ErrTagStorage), goerr.V("path", path))
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSession); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to initialize buckets",
			goerr.T(model.ErrTagStorage), goerr.V("path", path))
	}

	return &boltRepo{db: db}, nil
}

func (r *boltRepo) GetSessionID(ctx context.Context) (model.SessionID, error) {
	var id model.SessionID
	err := r.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSession).Get(keySessionID); v != nil {
			id = model.SessionID(v)
		}
		return nil
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to get session ID", goerr.T(model.ErrTagStorage))
	}
	return id, nil
}

func (r *boltRepo) PutSessionID(ctx context.Context, id model.SessionID) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keySessionID, []byte(id))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put session ID",
			goerr.T(model.ErrTagStorage), goerr.V("session_id", id))
	}
	return nil
}

func (r *boltRepo) PutRecord(ctx context.Context, record *model.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal record",
			goerr.T(model.ErrTagStorage), goerr.V("record_id", record.ID))
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketRecords).CreateBucketIfNotExists([]byte(record.SessionID))
		if err != nil {
			return err
		}
		return b.Put([]byte(record.ID), data)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put record",
			goerr.T(model.ErrTagStorage), goerr.V("record_id", record.ID))
	}
	return nil
}

func (r *boltRepo) ListRecords(ctx context.Context, id model.SessionID) ([]*model.Record, error) {
	var records []*model.Record
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords).Bucket([]byte(id))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var record model.Record
			if err := json.Unmarshal(v, &record); err != nil {
				// Skip malformed entries instead of failing the whole load
				return nil
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list records",
			goerr.T(model.ErrTagStorage), goerr.V("session_id", id))
	}
	return records, nil
}

func (r *boltRepo) ClearRecords(ctx context.Context, id model.SessionID) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bucketRecords)
		if parent.Bucket([]byte(id)) == nil {
			return nil
		}
		return parent.DeleteBucket([]byte(id))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to clear records",
			goerr.T(model.ErrTagStorage), goerr.V("session_id", id))
	}
	return nil
}

func (r *boltRepo) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	var profile *model.UserProfile
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSession).Get(keyProfile)
		if v == nil {
			return nil
		}
		var p model.UserProfile
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		profile = &p
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profile", goerr.T(model.ErrTagStorage))
	}
	return profile, nil
}

func (r *boltRepo) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal profile", goerr.T(model.ErrTagStorage))
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyProfile, data)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.T(model.ErrTagStorage))
	}
	return nil
}

func (r *boltRepo) Close() error {
	return r.db.Close()
}
