package service

import (
	"fmt"
	"sort"
	"time"

	"taskflow/internal/model"
)

// ReminderKind tags a planned reminder.
type ReminderKind string

const (
	ReminderFinal   ReminderKind = "final"
	ReminderRegular ReminderKind = "regular"
)

const (
	finalReminderHour   = 9
	regularReminderHour = 10
	reminderCadenceDays = 2
	minReminderLead     = time.Minute
)

// Reminder is one planned notification instant for a deadline.
type Reminder struct {
	At                time.Time
	Kind              ReminderKind
	DaysUntilDeadline int
}

// PlanReminders computes the reminder instants for deadline as seen at now.
// Calendar arithmetic happens in now's location. Only instants more than a
// minute ahead of now are kept; the result is sorted soonest first.
func PlanReminders(deadline, now time.Time) []Reminder {
	loc := now.Location()
	deadline = deadline.In(loc)

	days := daysBetween(now, deadline)
	if days < 0 {
		return nil
	}

	dy, dm, dd := deadline.Date()
	var plan []Reminder

	final := time.Date(dy, dm, dd, finalReminderHour, 0, 0, 0, loc)
	if final.Sub(now) > minReminderLead {
		plan = append(plan, Reminder{At: final, Kind: ReminderFinal})
	}

	for offset := reminderCadenceDays; offset <= days; offset += reminderCadenceDays {
		at := time.Date(dy, dm, dd-offset, regularReminderHour, 0, 0, 0, loc)
		if at.Sub(now) > minReminderLead {
			plan = append(plan, Reminder{At: at, Kind: ReminderRegular, DaysUntilDeadline: offset})
		}
	}

	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].At.Before(plan[j].At)
	})
	return plan
}

// daysBetween counts calendar days from a's date to b's date.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Notification is a delivery request handed to a Delivery.
type Notification struct {
	At       time.Time
	Title    string
	Body     string
	Priority model.Priority
	TaskID   string
}

// Notification renders the reminder for a task.
func (r Reminder) Notification(taskID, title string) Notification {
	if r.Kind == ReminderFinal {
		return Notification{
			At:       r.At,
			Title:    "🔴 Task Deadline Today",
			Body:     fmt.Sprintf("⚠️ Last day! \"%s\" is due today.", title),
			Priority: model.PriorityHigh,
			TaskID:   taskID,
		}
	}
	return Notification{
		At:       r.At,
		Title:    "📋 Task Reminder",
		Body:     fmt.Sprintf("⏰ %s: \"%s\"", dueIn(r.DaysUntilDeadline), title),
		Priority: model.PriorityDefault,
		TaskID:   taskID,
	}
}

func dueIn(days int) string {
	switch {
	case days <= 0:
		return "Due today"
	case days == 1:
		return "Due in 1 day"
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}
