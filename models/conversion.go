package models

import "time"

// Conversion records one upload-and-convert operation. Rows are immutable after
// creation and visible only to the owning user.
type Conversion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	OriginalName string    `gorm:"size:512;not null" json:"original_name"` // client-supplied, untrusted
	FilePath     string    `gorm:"size:1024;not null" json:"-"`            // filesystem path of the stored PDF
	ImageURL     string    `gorm:"size:1024;not null" json:"image_url"`    // public locator of the converted artifact
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
