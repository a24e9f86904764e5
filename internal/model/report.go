package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReportStatusPending  = "pending"
	ReportStatusApproved = "approved"
)

type Report struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// UserID is nullable: deleting the owner detaches the report instead
	// of deleting it.
	UserID       *uuid.UUID   `gorm:"type:uuid" json:"user_id"`
	User         *User        `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	Content      string       `gorm:"type:text" json:"content"`
	Status       string       `gorm:"size:50;not null;default:pending" json:"status"`
	ApprovedByID *uuid.UUID   `gorm:"type:uuid" json:"approved_by_id,omitempty"`
	ApprovedAt   *time.Time   `json:"approved_at,omitempty"`
	Files        []ReportFile `gorm:"foreignKey:ReportID" json:"files,omitempty"`
	Version      int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

func (r *Report) Approved() bool {
	return r.Status == ReportStatusApproved
}

// OwnerID makes Report satisfy ability.Owned.
func (r *Report) OwnerID() *uuid.UUID {
	return r.UserID
}

type ReportFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null" json:"report_id"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	FileType  string    `gorm:"size:50" json:"file_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
