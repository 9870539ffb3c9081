package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/bundled/bundle"

	bolt "go.etcd.io/bbolt"
)

// BundlesBucket is the bucket that holds the Bundles, keyed by name.
var BundlesBucket = []byte("bundles")

var NotOpen = errors.New("storage not open")

// Storage is a storage.Storage backed by BoltDB.
type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	if err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BundlesBucket)
		return err
	}); err != nil {
		db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return NotOpen
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func (s *Storage) Put(ctx context.Context, b *bundle.Bundle) error {
	s.logf("Put %s", b.Name)
	if s.db == nil {
		return NotOpen
	}
	if err := b.Validate(); err != nil {
		return err
	}
	js, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BundlesBucket).Put([]byte(b.Name), js)
	})
}

func (s *Storage) Get(ctx context.Context, name string) (*bundle.Bundle, error) {
	s.logf("Get %s", name)
	if s.db == nil {
		return nil, NotOpen
	}
	var b *bundle.Bundle
	err := s.db.View(func(tx *bolt.Tx) error {
		js := tx.Bucket(BundlesBucket).Get([]byte(name))
		if js == nil {
			return nil
		}
		b = &bundle.Bundle{}
		return json.Unmarshal(js, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Storage) List(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	acc := make([]string, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(BundlesBucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logf("List found %d bundles", len(acc))
	return acc, nil
}

func (s *Storage) Remove(ctx context.Context, name string) error {
	s.logf("Remove %s", name)
	if s.db == nil {
		return NotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BundlesBucket).Delete([]byte(name))
	})
}
