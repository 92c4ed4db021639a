// Package persistence stores controller state that must survive a restart:
// blowdown totals, pump lifetime counters, water meter totalizers and the
// manually entered bench chemistry.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/boilerctl/boilerctl/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketBlowdown     = "blowdown"
	BucketPumps        = "pumps"
	BucketMeters       = "meters"
	BucketManualInputs = "manualInputs"

	blowdownKey = "totals"
	manualKey   = "entries"
)

// BlowdownTotals is the persisted blowdown time accounting.
type BlowdownTotals struct {
	DailyTotal  time.Duration `json:"dailyTotal"`
	DailyDate   string        `json:"dailyDate"` // YYYY-MM-DD of the daily total
	Accumulated time.Duration `json:"accumulated"`
}

// PumpStats is the persisted per-pump lifetime accounting.
type PumpStats struct {
	TotalRuntime time.Duration `json:"totalRuntime"`
	TotalSteps   uint64        `json:"totalSteps"`
}

// MeterTotals is the persisted per-meter totalizer.
type MeterTotals struct {
	Contacts uint64  `json:"contacts"`
	Volume   float64 `json:"volume"`
}

type Persistence interface {
	Init() error

	LoadBlowdownTotals() (BlowdownTotals, error)
	SaveBlowdownTotals(totals BlowdownTotals) error

	LoadPumpStats(pumpId string) (PumpStats, error)
	SavePumpStats(pumpId string, stats PumpStats) error
	DeletePumpStats(pumpId string) error

	LoadMeterTotals(meterId string) (MeterTotals, error)
	SaveMeterTotals(meterId string, totals MeterTotals) error

	LoadManualInputs() (map[string]fuzzy.ManualEntry, error)
	SaveManualInputs(entries map[string]fuzzy.ManualEntry) error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	return &persistence{
		dbPath: dbPath,
	}
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p persistence) save(bucket string, key string, value interface{}) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(key), data)
	})
}

func (p persistence) load(bucket string, key string, value interface{}) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return os.ErrNotExist
		}
		data := b.Get([]byte(key))
		if data == nil {
			return os.ErrNotExist
		}
		return json.Unmarshal(data, value)
	})
}

func (p persistence) delete(bucket string, key string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (p persistence) LoadBlowdownTotals() (totals BlowdownTotals, err error) {
	err = p.load(BucketBlowdown, blowdownKey, &totals)
	return totals, err
}

func (p persistence) SaveBlowdownTotals(totals BlowdownTotals) error {
	return p.save(BucketBlowdown, blowdownKey, totals)
}

func (p persistence) LoadPumpStats(pumpId string) (stats PumpStats, err error) {
	err = p.load(BucketPumps, pumpId, &stats)
	return stats, err
}

func (p persistence) SavePumpStats(pumpId string, stats PumpStats) error {
	return p.save(BucketPumps, pumpId, stats)
}

func (p persistence) DeletePumpStats(pumpId string) error {
	return p.delete(BucketPumps, pumpId)
}

func (p persistence) LoadMeterTotals(meterId string) (totals MeterTotals, err error) {
	err = p.load(BucketMeters, meterId, &totals)
	return totals, err
}

func (p persistence) SaveMeterTotals(meterId string, totals MeterTotals) error {
	return p.save(BucketMeters, meterId, totals)
}

func (p persistence) LoadManualInputs() (map[string]fuzzy.ManualEntry, error) {
	entries := map[string]fuzzy.ManualEntry{}
	err := p.load(BucketManualInputs, manualKey, &entries)
	return entries, err
}

func (p persistence) SaveManualInputs(entries map[string]fuzzy.ManualEntry) error {
	return p.save(BucketManualInputs, manualKey, entries)
}
