// Package store provides the local bolt key-value store that keeps object
// records and settings rows, with an LRU read cache in front of it.
package store

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/lodastack/log"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/model"
)

const (
	boltFile    = "meterboard.db"
	openTimeout = 3 * time.Second

	// cacheMaxMemorySize is the maximum size of cached values in bytes.
	cacheMaxMemorySize = 1024 * 1024 * 50
)

// Store is a bolt key-value store.
type Store struct {
	dir    string
	dbPath string

	mu sync.Mutex
	db *bolt.DB

	cache *Cache

	logger *log.Logger
}

// New returns a new Store rooted at dir. Open must be called before use.
func New(dir string) *Store {
	return &Store{
		dir:    dir,
		dbPath: filepath.Join(dir, boltFile),
		cache:  NewCache(cacheMaxMemorySize, nil),
		logger: log.New("INFO", "store", model.LogBackend),
	}
}

// Open creates the directory if needed and opens the bolt file.
func (s *Store) Open() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	db, err := bolt.Open(s.dbPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("open bolt file %s: %w", s.dbPath, err)
	}
	s.db = db
	s.logger.Printf("store opened at %s", s.dbPath)
	return nil
}

// Close closes the bolt file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.cache.Purge()
	s.logger.Printf("store closed")
	return nil
}

// Path returns the path to the store's storage directory.
func (s *Store) Path() string {
	return s.dir
}

// View returns the value for the given key. A missing key returns nil
// without error; a missing bucket returns ErrBucketNotFound.
func (s *Store) View(bucket, key []byte) ([]byte, error) {
	if v, exist := s.cache.Get(bucket, key); exist {
		return v, nil
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return common.ErrBucketNotFound
		}
		// bolt values are only valid inside the transaction
		if v := b.Get(key); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if value != nil {
		s.cache.Add(bucket, key, value)
	}
	return value, err
}

// Views returns every non-empty value whose key starts with keyPrefix.
func (s *Store) Views(bucket, keyPrefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return common.ErrBucketNotFound
		}
		c := b.Cursor()
		for k, v := c.Seek(keyPrefix); len(k) != 0 && strings.HasPrefix(string(k), string(keyPrefix)); k, v = c.Next() {
			if len(v) != 0 {
				result[string(k)] = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Errorf("view bucket %s prefix %s fail: %s", string(bucket), string(keyPrefix), err.Error())
	}
	return result, err
}

// Update sets the value for the given key.
func (s *Store) Update(bucket, key, value []byte) error {
	return s.Batch([]model.Row{{Bucket: bucket, Key: key, Value: value}})
}

// Batch writes all rows in one transaction. Every bucket must exist.
func (s *Store) Batch(rows []model.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("no data in batch: %w", common.ErrInvalidParam)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, row := range rows {
			b := tx.Bucket(row.Bucket)
			if b == nil {
				return common.ErrBucketNotFound
			}
			if err := b.Put(row.Key, row.Value); err != nil {
				return err
			}
		}
		return nil
	})
	// remove cache at last
	for _, row := range rows {
		s.cache.Remove(row.Bucket, row.Key)
	}
	return err
}

// Remove deletes a key.
func (s *Store) Remove(bucket, key []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return common.ErrBucketNotFound
		}
		return b.Delete(key)
	})
	s.cache.Remove(bucket, key)
	return err
}

// CreateBucket creates a bucket. It fails if the bucket exists.
func (s *Store) CreateBucket(name []byte) error {
	s.logger.Printf("store create bucket, bucket:%s", string(name))
	// remove cache at first
	s.cache.RemoveBucket(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket(name)
		return err
	})
}

// CreateBucketIfNotExist creates a bucket unless it already exists.
func (s *Store) CreateBucketIfNotExist(name []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
}

// RemoveBucket removes a bucket and everything in it.
func (s *Store) RemoveBucket(name []byte) error {
	s.logger.Printf("store remove bucket, bucket:%s", string(name))
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket(name)
	})
	// remove cache at last
	s.cache.RemoveBucket(name)
	return err
}

// Backup returns a consistent copy of the bolt file.
func (s *Store) Backup() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpFile, err := ioutil.TempFile("", "meterboard-backup-")
	if err != nil {
		return nil, err
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(tmpFile.Name(), 0600)
	})
	if err != nil {
		return nil, err
	}
	return ioutil.ReadFile(tmpFile.Name())
}
