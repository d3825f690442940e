package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
)

const DefaultDBPath = "./data/arbitrage.db"

// kvStore is the slice of the bolt database the journal writes through.
type kvStore interface {
	Set(bucket string, key, value []byte) error
	List(bucket string) (map[string][]byte, error)
	Apply(ops []*boltdb.WriteOperation) error
	Close() error
}

type boltStore struct {
	db *boltdb.BoltDatabase
}

func openBolt(dbPath string) (*boltStore, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Set(bucket string, key, value []byte) error {
	return s.db.Set(bucket, key, value)
}

func (s *boltStore) List(bucket string) (map[string][]byte, error) {
	return s.db.List(bucket)
}

// Apply writes all operations in a single batch.
func (s *boltStore) Apply(ops []*boltdb.WriteOperation) error {
	if len(ops) == 0 {
		return nil
	}
	batch := s.db.NewBatch()
	for _, op := range ops {
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add %s/%s to batch: %w", op.Bucket, op.Key, err)
		}
	}
	return batch.Execute()
}

func (s *boltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func setOp(bucket, key string, value []byte) *boltdb.WriteOperation {
	v := value
	return &boltdb.WriteOperation{
		Bucket: []byte(bucket),
		Key:    []byte(key),
		Value:  &v,
		Op:     boltdb.OpSet,
	}
}
