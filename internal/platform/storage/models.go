package storage

import (
	"time"

	"gorm.io/datatypes"
)

// ReferenceRecord is one row of the reference download manifest.
type ReferenceRecord struct {
	ID        uint           `gorm:"primaryKey"`
	ExamType  string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_reference_slot"`
	Slot      int            `gorm:"not null;uniqueIndex:idx_reference_slot"`
	URL       string         `gorm:"not null"`
	Path      string         `gorm:"not null"`
	Size      int64          `gorm:"not null"`
	SHA256    string         `gorm:"column:sha256;type:varchar(64)"`
	Headers   datatypes.JSON `gorm:"column:headers"`
	FetchedAt time.Time      `gorm:"not null;index"`
}

func (ReferenceRecord) TableName() string {
	return "reference_records"
}
