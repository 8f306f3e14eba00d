// Package notify is the local notification-delivery collaborator: it keeps
// registered reminders in SQLite, arms a cron job for each one and hands
// them to a Sink when they fire.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

// Sink shows a notification to the user.
type Sink interface {
	Deliver(ctx context.Context, n model.ScheduledNotification) error
}

// Timer arms one-shot jobs. *service.SchedulerService satisfies it.
type Timer interface {
	ScheduleAt(at time.Time, job func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

// Dispatcher implements service.Delivery.
type Dispatcher struct {
	repo      *repository.NotificationRepository
	timer     Timer
	sink      Sink
	newHandle func() string

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewDispatcher(repo *repository.NotificationRepository, timer Timer, sink Sink) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		timer:     timer,
		sink:      sink,
		newHandle: uuid.NewString,
		entries:   make(map[string]cron.EntryID),
	}
}

var _ service.Delivery = (*Dispatcher)(nil)

// Register stores the notification and arms its job. The returned handle
// identifies it for Cancel.
func (d *Dispatcher) Register(ctx context.Context, n service.Notification) (string, error) {
	row := model.ScheduledNotification{
		Handle:   d.newHandle(),
		TaskID:   n.TaskID,
		FireAt:   n.At.UTC(),
		Title:    n.Title,
		Body:     n.Body,
		Priority: n.Priority,
	}
	if err := d.repo.Create(ctx, &row); err != nil {
		return "", err
	}
	if err := d.arm(row); err != nil {
		if _, delErr := d.repo.Delete(ctx, row.Handle); delErr != nil {
			log.Printf("drop unarmed notification %s: %v", row.Handle, delErr)
		}
		return "", err
	}
	return row.Handle, nil
}

// Cancel disarms and forgets the notification. Unknown or already delivered
// handles are not an error.
func (d *Dispatcher) Cancel(ctx context.Context, handle string) error {
	d.mu.Lock()
	entry, ok := d.entries[handle]
	delete(d.entries, handle)
	d.mu.Unlock()
	if ok {
		d.timer.Remove(entry)
	}

	if _, err := d.repo.Delete(ctx, handle); err != nil {
		return err
	}
	return nil
}

// Restore re-arms stored notifications after a restart. Notifications whose
// time passed while the process was down are discarded, as are those whose
// handle is not in live, the set of handles still held by tasks.
func (d *Dispatcher) Restore(ctx context.Context, now time.Time, live map[string]bool) (int, error) {
	if dropped, err := d.repo.DeleteBefore(ctx, now); err != nil {
		return 0, err
	} else if dropped > 0 {
		log.Printf("[info] dropped %d missed notifications", dropped)
	}

	rows, err := d.repo.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	armed, orphaned := 0, 0
	for _, row := range rows {
		if !live[row.Handle] {
			if _, err := d.repo.Delete(ctx, row.Handle); err != nil {
				log.Printf("drop orphaned notification %s: %v", row.Handle, err)
			}
			orphaned++
			continue
		}
		if err := d.arm(row); err != nil {
			log.Printf("re-arm notification %s: %v", row.Handle, err)
			continue
		}
		armed++
	}
	if orphaned > 0 {
		log.Printf("[info] dropped %d orphaned notifications", orphaned)
	}
	return armed, nil
}

// Pending reports how many jobs are armed.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *Dispatcher) arm(row model.ScheduledNotification) error {
	handle := row.Handle
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, err := d.timer.ScheduleAt(row.FireAt, func() {
		d.fire(context.Background(), handle)
	})
	if err != nil {
		return fmt.Errorf("arm notification %s: %w", handle, err)
	}
	d.entries[handle] = entry
	return nil
}

func (d *Dispatcher) fire(ctx context.Context, handle string) {
	d.mu.Lock()
	delete(d.entries, handle)
	d.mu.Unlock()

	row, err := d.repo.FindByHandle(ctx, handle)
	if err != nil {
		if !repository.IsNotFound(err) {
			log.Printf("load notification %s: %v", handle, err)
		}
		return
	}

	if err := d.sink.Deliver(ctx, *row); err != nil {
		log.Printf("deliver notification %s task=%s: %v", handle, row.TaskID, err)
	} else {
		log.Printf("[info] delivered notification %s task=%s", handle, row.TaskID)
	}

	if _, err := d.repo.Delete(ctx, handle); err != nil {
		log.Printf("delete delivered notification %s: %v", handle, err)
	}
}
