package model

import "time"

// Entry is a single key-value record. The task collection lives in one entry.
type Entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priority of a delivered notification.
type Priority string

const (
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

// ScheduledNotification is a reminder registered with the local dispatcher
// and not yet delivered.
type ScheduledNotification struct {
	Handle    string    `gorm:"primaryKey"`
	TaskID    string    `gorm:"index"`
	FireAt    time.Time `gorm:"index"`
	Title     string
	Body      string
	Priority  Priority
	CreatedAt time.Time
}
