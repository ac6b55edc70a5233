package models

import (
	"time"

	"gorm.io/gorm"
)

// PublishedExport records an export artifact uploaded for download. Only the
// artifact metadata is kept; the session itself stays in memory.
type PublishedExport struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	SessionID   string         `gorm:"type:varchar(36);not null;index" json:"session_id"`
	ObjectName  string         `gorm:"not null" json:"object_name"`
	FileSize    int64          `json:"file_size"`
	CardCount   int            `json:"card_count"`
	SkippedRows int            `json:"skipped_rows"`
	Fields      string         `gorm:"type:json" json:"fields"` // JSON array of field names
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PublishedExport) TableName() string {
	return "published_exports"
}
