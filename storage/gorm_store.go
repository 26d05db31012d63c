package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Store = (*GormStore)(nil)

// Item is the row layout used by GormStore.
type Item struct {
	Key       string `gorm:"column:item_key;primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

func (Item) TableName() string {
	return "client_items"
}

type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the items table and returns a store backed by db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("[NewGormStore] db is required")
	}
	if err := db.AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("[NewGormStore] failed to migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) GetItem(ctx context.Context, key string, out any) (bool, error) {
	var item Item
	err := g.db.WithContext(ctx).First(&item, "item_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: select %q: %w", key, err)
	}
	if err := decode(key, item.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

func (g *GormStore) SetItem(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	item := Item{Key: key, Value: data, UpdatedAt: time.Now()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
}

func (g *GormStore) DeleteAll(ctx context.Context) error {
	return g.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Item{}).Error
}
