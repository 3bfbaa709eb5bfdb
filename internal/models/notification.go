package models

import (
	"time"
)

// Notification is an outbox row consumed by the delivery service
type Notification struct {
	ID          string    `gorm:"primaryKey;type:varchar(36);column:id"`
	RecipientID string    `gorm:"type:varchar(128);not null;index:social_notifs_recipient;column:recipient_id"`
	Type        string    `gorm:"type:varchar(32);not null;column:type"`
	Message     string    `gorm:"type:varchar(280);not null;column:message"`
	SourceID    string    `gorm:"type:varchar(128);not null;default:'';column:source_id"`
	IsRead      bool      `gorm:"not null;default:false;column:is_read"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "social_notifications"
}
