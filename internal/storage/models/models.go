package models

import "time"

// FlightSnapshot 周期性落库的飞控状态历史（gorm 模型）
type FlightSnapshot struct {
	ID        uint64    `gorm:"primaryKey"`
	RunID     string    `gorm:"index;size:64"`
	Armed     bool      `gorm:""`
	Roll      int16     `gorm:""`
	Pitch     int16     `gorm:""`
	Heading   int16     `gorm:""`
	FCVariant string    `gorm:"size:8"`
	LinkQual  uint16    `gorm:""`
	CreatedAt time.Time `gorm:"index"`
}

// TableName 固定表名
func (FlightSnapshot) TableName() string { return "flight_snapshots" }
