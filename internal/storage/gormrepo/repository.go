package gormrepo

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taoyao-code/msp-gateway/internal/state"
	"github.com/taoyao-code/msp-gateway/internal/storage/models"
)

// Repository 基于 gorm 的快照历史仓储
type Repository struct {
	db *gorm.DB
}

// New 打开连接并自动迁移快照表
func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.FlightSnapshot{}); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// SaveSnapshot 落库一条状态快照
func (r *Repository) SaveSnapshot(ctx context.Context, runID string, snap state.Snapshot) error {
	row := models.FlightSnapshot{
		RunID:     runID,
		Armed:     snap.Armed,
		Roll:      snap.Roll,
		Pitch:     snap.Pitch,
		Heading:   snap.Heading,
		FCVariant: snap.FCVariant,
		LinkQual:  snap.Channels[8],
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// RecentSnapshots 查询最近 n 条快照（新到旧）
func (r *Repository) RecentSnapshots(ctx context.Context, runID string, n int) ([]models.FlightSnapshot, error) {
	var rows []models.FlightSnapshot
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

// Close 释放底层连接
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
