// Package bolt stores snapshots in a BoltDB file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/dao/criteria"
	"github.com/viant/tickos/service/snapshot"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("snapshots")

// Service is a dao.Service backed by a bbolt bucket keyed by snapshot ID.
type Service struct {
	db *bbolt.DB
}

var _ dao.Service[string, snapshot.Snapshot] = (*Service)(nil)

// Open opens (or creates) the database file at path.
func Open(path string) (*Service, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Service{db: db}, nil
}

// Close releases the database file.
func (s *Service) Close() error { return s.db.Close() }

func (s *Service) Save(_ context.Context, aSnapshot *snapshot.Snapshot) error {
	if aSnapshot == nil {
		return dao.ErrNilEntity
	}
	if aSnapshot.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(aSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(aSnapshot.ID), data)
	})
}

func (s *Service) Load(_ context.Context, id string) (*snapshot.Snapshot, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var ret *snapshot.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("snapshot %s: %w", id, dao.ErrNotFound)
		}
		ret = &snapshot.Snapshot{}
		return json.Unmarshal(data, ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("snapshot %s: %w", id, dao.ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// List returns snapshots in key order.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*snapshot.Snapshot, error) {
	var ret []*snapshot.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(key, value []byte) error {
			if !criteria.FilterByID(string(key), parameters) {
				return nil
			}
			aSnapshot := &snapshot.Snapshot{}
			if err := json.Unmarshal(value, aSnapshot); err != nil {
				return fmt.Errorf("failed to unmarshal snapshot %s: %w", key, err)
			}
			ret = append(ret, aSnapshot)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
