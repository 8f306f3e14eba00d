package service

import (
	"context"
	"log"
	"time"
)

// Delivery registers and cancels notifications with the host.
type Delivery interface {
	Register(ctx context.Context, n Notification) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Clock returns the current time.
type Clock func() time.Time

// ReminderScheduler turns deadlines into registered notifications.
// Delivery failures are logged and never returned.
type ReminderScheduler struct {
	delivery Delivery
	now      Clock
}

func NewReminderScheduler(delivery Delivery, now Clock) *ReminderScheduler {
	if now == nil {
		now = time.Now
	}
	return &ReminderScheduler{delivery: delivery, now: now}
}

// Schedule registers every planned reminder for the deadline and returns the
// handles in chronological order. Entries that fail to register are skipped.
func (s *ReminderScheduler) Schedule(ctx context.Context, taskID, title string, deadline time.Time) []string {
	plan := PlanReminders(deadline, s.now())
	handles := make([]string, 0, len(plan))
	for _, r := range plan {
		handle, err := s.delivery.Register(ctx, r.Notification(taskID, title))
		if err != nil {
			log.Printf("register %s reminder for task %s at %s: %v", r.Kind, taskID, r.At.Format(time.RFC3339), err)
			continue
		}
		handles = append(handles, handle)
	}
	if len(plan) > 0 {
		log.Printf("[info] scheduled %d/%d reminders task=%s", len(handles), len(plan), taskID)
	}
	return handles
}

// Cancel asks the delivery to drop every handle.
func (s *ReminderScheduler) Cancel(ctx context.Context, handles []string) {
	for _, handle := range handles {
		if err := s.delivery.Cancel(ctx, handle); err != nil {
			log.Printf("cancel reminder %s: %v", handle, err)
		}
	}
}

// Reschedule replaces oldHandles with a fresh schedule for newDeadline.
func (s *ReminderScheduler) Reschedule(ctx context.Context, taskID, title string, oldHandles []string, newDeadline time.Time) []string {
	s.Cancel(ctx, oldHandles)
	return s.Schedule(ctx, taskID, title, newDeadline)
}
