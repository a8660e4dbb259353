package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const reportsBucket = "reports"

// Store persists evaluation reports in BoltDB. Keys are RFC3339Nano
// timestamps, so a cursor scan returns reports in chronological order.
type Store struct {
	db *bbolt.DB
}

// NewStore opens (or creates) the report database under dataPath.
func NewStore(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "relest-reports.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create reports bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists one report.
func (s *Store) Save(r Report) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		key := []byte(r.Timestamp.Format(time.RFC3339Nano))
		return tx.Bucket([]byte(reportsBucket)).Put(key, data)
	})
}

// List returns all stored reports in chronological order.
func (s *Store) List() ([]Report, error) {
	var out []Report
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(reportsBucket)).ForEach(func(_, v []byte) error {
			var r Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal report: %w", err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
