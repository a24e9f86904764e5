package model

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`  // User who receives the notification
	ActorID  uuid.UUID  `gorm:"type:uuid;not null" json:"actor_id"` // User who triggered the notification
	ReportID *uuid.UUID `gorm:"type:uuid" json:"report_id,omitempty"`
	Type     string     `gorm:"type:varchar(50);not null" json:"type"` // 'report_approved'
	Message  string     `gorm:"type:text" json:"message"`
	IsRead   bool       `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Associations - pointers to avoid recursion if User has Notifications
	User  *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
