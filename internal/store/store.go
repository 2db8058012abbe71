// Package store persists the medicine catalog and dose logs in SQLite and
// keeps sessions and small state in BadgerDB.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/gmsas95/medremind/internal/config"
	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/medication"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const alertKey = "caregiver_alert"

// Store provides unified access to SQLite and BadgerDB
type Store struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	badger *badger.DB
}

// New opens both databases under the configured paths
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "medremind.db")
	}
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// a single writer connection keeps WAL writes serialized
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&MedicineRecord{}, &LogRecord{}); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	badgerOpts := badger.DefaultOptions(badgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{
		db:     db,
		sqlDB:  sqliteDB,
		badger: badgerDB,
	}, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	return stderrors.Join(s.badger.Close(), s.sqlDB.Close())
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks the SQLite connection
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// ==================== Medicine Methods ====================

// SaveMedicine inserts or replaces a catalog entry
func (s *Store) SaveMedicine(ctx context.Context, m medication.Medicine) error {
	rec, err := medicineRecord(m)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(rec).Error
}

// DeleteMedicine removes a medicine and every log that references it
func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medicine_id = ?", id).Delete(&LogRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&MedicineRecord{}).Error
	})
}

// LoadMedicines returns the catalog in creation order
func (s *Store) LoadMedicines(ctx context.Context) ([]medication.Medicine, error) {
	var recs []MedicineRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC, rowid ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]medication.Medicine, 0, len(recs))
	for i := range recs {
		m, err := recs[i].Medicine()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ==================== Log Methods ====================

// SaveLogs upserts dose logs by ID
func (s *Store) SaveLogs(ctx context.Context, entries ...medication.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	recs := make([]*LogRecord, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, logRecord(e))
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&recs).Error
}

// LoadLogs returns every dose log in creation order
func (s *Store) LoadLogs(ctx context.Context) ([]medication.LogEntry, error) {
	var recs []LogRecord
	if err := s.db.WithContext(ctx).Order("rowid ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]medication.LogEntry, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].LogEntry())
	}
	return out, nil
}

// ==================== Alert Methods (BadgerDB) ====================

// SaveAlert stores the caregiver alert flag
func (s *Store) SaveAlert(_ context.Context, alert medication.CaregiverAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return s.SetKV(alertKey, data)
}

// LoadAlert returns the stored caregiver alert, or a hidden one
func (s *Store) LoadAlert(_ context.Context) (medication.CaregiverAlert, error) {
	var alert medication.CaregiverAlert
	data, err := s.GetKV(alertKey)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrNotFound.Code {
			return alert, nil
		}
		return alert, err
	}
	if err := json.Unmarshal(data, &alert); err != nil {
		return alert, fmt.Errorf("failed to decode caregiver alert: %w", err)
	}
	return alert, nil
}

// ==================== Session Methods (BadgerDB) ====================

// SetSession stores session data in BadgerDB
func (s *Store) SetSession(key string, value []byte, ttl time.Duration) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte("session:"+key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// GetSession retrieves session data from BadgerDB
func (s *Store) GetSession(key string) ([]byte, error) {
	return s.get("session:" + key)
}

// DeleteSession removes session data
func (s *Store) DeleteSession(key string) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte("session:" + key))
	})
}

// ==================== KV Methods (BadgerDB) ====================

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV retrieves a value by key
func (s *Store) GetKV(key string) ([]byte, error) {
	return s.get("kv:" + key)
}

func (s *Store) get(key string) ([]byte, error) {
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFound("key", key)
	}
	return val, err
}
