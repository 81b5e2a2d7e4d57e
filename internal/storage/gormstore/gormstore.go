// Package gormstore implements the storage contract on a SQL database through
// GORM, for deployments that have no Redis but already run MySQL or SQLite.
// Expiry is an absolute-epoch column checked on read and bulk-deleted by a
// background sweep.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/tokengate/internal/shared/goroutine"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/storage"
)

// DefaultSweepInterval is used when the caller passes 0.
const DefaultSweepInterval int64 = 60

// Record is one persisted key/value pair. ExpireAt is unix milliseconds, or
// storage.NeverExpire for keys without expiry.
type Record struct {
	Key      string `gorm:"column:k;primaryKey;size:512"`
	Value    string `gorm:"column:v;type:text"`
	ExpireAt int64  `gorm:"column:expire_at;index"`
}

// TableName sets the table name for Record.
func (Record) TableName() string {
	return "tokengate_kv"
}

type Store struct {
	db *gorm.DB

	sweepInterval int64
	stop          chan struct{}
	stopOnce      sync.Once
	log           logger.Interface

	now func() time.Time
}

var _ storage.StringStore = (*Store)(nil)
var _ storage.ConditionalSetter = (*Store)(nil)

// New migrates the backing table and wraps db. Sweep interval is in seconds;
// 0 selects the default, -1 disables sweeping.
func New(db *gorm.DB, sweepIntervalSeconds int64, log logger.Interface) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	if sweepIntervalSeconds == 0 {
		sweepIntervalSeconds = DefaultSweepInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		db:            db,
		sweepInterval: sweepIntervalSeconds,
		stop:          make(chan struct{}),
		log:           log.Named("gormstore"),
		now:           time.Now,
	}, nil
}

func (s *Store) nowMilli() int64 {
	return s.now().UnixMilli()
}

func (s *Store) expireAtFor(ttl int64) int64 {
	if ttl == storage.NeverExpire {
		return storage.NeverExpire
	}
	return s.nowMilli() + ttl*1000
}

func expired(rec *Record, nowMilli int64) bool {
	return rec.ExpireAt != storage.NeverExpire && rec.ExpireAt <= nowMilli
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("k = ?", key).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	if expired(&rec, s.nowMilli()) {
		// Lazy expiry; the sweep will catch rows nobody reads.
		res := s.db.WithContext(ctx).Where("k = ? AND expire_at = ?", key, rec.ExpireAt).Delete(&Record{})
		if res.Error != nil {
			s.log.Warn("failed to delete expired row", "key", key, "error", res.Error)
		}
		return "", nil
	}
	return rec.Value, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl int64) error {
	if ttl == 0 {
		return s.Delete(ctx, key)
	}
	rec := Record{Key: key, Value: value, ExpireAt: s.expireAtFor(ttl)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v", "expire_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl int64) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Clear an expired leftover so it does not block the insert.
		if err := tx.Where("k = ? AND expire_at != ? AND expire_at <= ?",
			key, storage.NeverExpire, s.nowMilli()).Delete(&Record{}).Error; err != nil {
			return err
		}
		rec := Record{Key: key, Value: value, ExpireAt: s.expireAtFor(ttl)}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to setnx key %q: %w", key, err)
	}
	return inserted, nil
}

func (s *Store) Update(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Model(&Record{}).
		Where("k = ?", key).
		Where("expire_at = ? OR expire_at > ?", storage.NeverExpire, s.nowMilli()).
		Update("v", value).Error
	if err != nil {
		return fmt.Errorf("failed to update key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("k = ?", key).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetTimeout(ctx context.Context, key string) (int64, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("k = ?", key).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return storage.NotValueExpire, nil
		}
		return 0, fmt.Errorf("failed to read ttl of key %q: %w", key, err)
	}
	nowMilli := s.nowMilli()
	if expired(&rec, nowMilli) {
		return storage.NotValueExpire, nil
	}
	if rec.ExpireAt == storage.NeverExpire {
		return storage.NeverExpire, nil
	}
	return (rec.ExpireAt - nowMilli) / 1000, nil
}

func (s *Store) UpdateTimeout(ctx context.Context, key string, ttl int64) error {
	err := s.db.WithContext(ctx).Model(&Record{}).
		Where("k = ?", key).
		Where("expire_at = ? OR expire_at > ?", storage.NeverExpire, s.nowMilli()).
		Update("expire_at", s.expireAtFor(ttl)).Error
	if err != nil {
		return fmt.Errorf("failed to update ttl of key %q: %w", key, err)
	}
	return nil
}

func (s *Store) SearchKeys(ctx context.Context, prefix, keyword string, start, size int, ascending bool) ([]string, error) {
	var keys []string
	q := s.db.WithContext(ctx).Model(&Record{}).
		Where("k LIKE ?", prefix+"%").
		Where("expire_at = ? OR expire_at > ?", storage.NeverExpire, s.nowMilli())
	if keyword != "" {
		q = q.Where("k LIKE ?", "%"+keyword+"%")
	}
	if err := q.Pluck("k", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to search keys with prefix %q: %w", prefix, err)
	}
	return storage.FilterKeys(keys, prefix, keyword, start, size, ascending), nil
}

// Init starts the sweep goroutine that bulk-deletes expired rows.
func (s *Store) Init() error {
	if s.sweepInterval == -1 {
		return nil
	}
	goroutine.SafeGo(s.log, "gormstore-sweep", s.sweepLoop)
	return nil
}

func (s *Store) Destroy() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(time.Duration(s.sweepInterval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes every expired row in one statement.
func (s *Store) Sweep() {
	res := s.db.Where("expire_at != ? AND expire_at <= ?", storage.NeverExpire, s.nowMilli()).Delete(&Record{})
	if res.Error != nil {
		s.log.Warn("sweep failed", "error", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		s.log.Debug("swept expired rows", "removed", res.RowsAffected)
	}
}
