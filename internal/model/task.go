package model

import (
	"slices"
	"time"
)

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Timestamp is a point in time in milliseconds since the Unix epoch.
type Timestamp int64

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the timestamp as a local time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// Task represents a single item in the tracker.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Category        Category   `json:"category"`
	Status          Status     `json:"status"`
	CreatedAt       Timestamp  `json:"createdAt"`
	CompletedAt     *Timestamp `json:"completedAt,omitempty"`
	Deadline        *Timestamp `json:"deadline,omitempty"`
	ReminderHandles []string   `json:"reminderHandles"`
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DeadlineTime reports the deadline, if any.
func (t Task) DeadlineTime() (time.Time, bool) {
	if t.Deadline == nil {
		return time.Time{}, false
	}
	return t.Deadline.Time(), true
}

// Clone returns a copy that shares no pointers or slices with t.
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Deadline != nil {
		v := *t.Deadline
		c.Deadline = &v
	}
	c.ReminderHandles = slices.Clone(t.ReminderHandles)
	if c.ReminderHandles == nil {
		c.ReminderHandles = []string{}
	}
	return c
}
