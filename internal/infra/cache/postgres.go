package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

// VisitorRow is one cached visitor profile, unique on CacheKey.
type VisitorRow struct {
	CacheKey    string    `gorm:"primaryKey;column:cache_key"`
	Profile     string    `gorm:"type:jsonb;not null"`
	LastUpdated time.Time `gorm:"not null;index"`
}

func (VisitorRow) TableName() string { return "tealium_visitors" }

type PostgresCache struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewPostgresCache migrates the visitor table and returns the store.
func NewPostgresCache(db *gorm.DB) (*PostgresCache, error) {
	if err := db.AutoMigrate(&VisitorRow{}); err != nil {
		return nil, fmt.Errorf("migrate tealium_visitors: %w", err)
	}
	return &PostgresCache{db: db}, nil
}

func (p *PostgresCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	var row VisitorRow
	err := p.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return rowToEntry(row)
}

func (p *PostgresCache) Put(ctx context.Context, entry domain.CacheEntry) error {
	row, err := entryToRow(entry)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"profile", "last_updated"}),
	}).Create(&row).Error
}

func entryToRow(entry domain.CacheEntry) (VisitorRow, error) {
	profile, err := json.Marshal(entry.Profile)
	if err != nil {
		return VisitorRow{}, fmt.Errorf("encode profile: %w", err)
	}
	return VisitorRow{CacheKey: entry.Key, Profile: string(profile), LastUpdated: entry.LastUpdated.UTC()}, nil
}

func rowToEntry(row VisitorRow) (*domain.CacheEntry, error) {
	var profile domain.VisitorProfile
	if err := json.Unmarshal([]byte(row.Profile), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &domain.CacheEntry{Key: row.CacheKey, Profile: profile, LastUpdated: row.LastUpdated}, nil
}
