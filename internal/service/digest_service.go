package service

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"taskflow/internal/model"
)

// Stats summarizes the collection for the dashboard.
type Stats struct {
	Total     int
	Pending   int
	Completed int
	DueSoon   int
	Overdue   int
}

// ComputeStats counts tasks by state. Due-soon and overdue only count
// pending tasks with a deadline.
func ComputeStats(tasks []model.Task, now time.Time) Stats {
	var st Stats
	st.Total = len(tasks)
	for _, task := range tasks {
		if task.IsCompleted() {
			st.Completed++
			continue
		}
		st.Pending++
		deadline, ok := task.DeadlineTime()
		if !ok {
			continue
		}
		switch {
		case IsDeadlineOverdue(deadline, now):
			st.Overdue++
		case IsDeadlineSoon(deadline, now):
			st.DueSoon++
		}
	}
	return st
}

// TaskLister is the read side of the task store.
type TaskLister interface {
	All() []model.Task
}

// DigestService builds human-readable summaries for daily notifications.
type DigestService struct {
	tasks TaskLister
}

func NewDigestService(tasks TaskLister) *DigestService {
	return &DigestService{tasks: tasks}
}

// DailySummary renders an HTML digest of the collection as seen at now.
func (s *DigestService) DailySummary(now time.Time) string {
	tasks := s.tasks.All()
	stats := ComputeStats(tasks, now)

	var pending []model.Task
	for _, task := range tasks {
		if !task.IsCompleted() {
			pending = append(pending, task)
		}
	}
	SortByDeadline(pending)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("👋 <b>%s!</b>\n", Greeting(now)))
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Monday, January 2")))
	builder.WriteString(FormatStats(stats))
	builder.WriteString("\n\n🔥 <b>Pending tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing pending\n")
	} else {
		for _, task := range pending {
			builder.WriteString(FormatTask(task, now))
		}
	}

	return strings.TrimSpace(builder.String())
}

// FormatStats renders the dashboard counters on one line.
func FormatStats(st Stats) string {
	return fmt.Sprintf("📊 Total <b>%d</b> · Done <b>%d</b> · Due soon <b>%d</b> · Overdue <b>%d</b>",
		st.Total, st.Completed, st.DueSoon, st.Overdue)
}

// SortByDeadline orders tasks with deadlines first, soonest first; tasks
// without a deadline keep newest-first order.
func SortByDeadline(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].Deadline, tasks[j].Deadline
		switch {
		case a == nil && b == nil:
			return tasks[i].CreatedAt > tasks[j].CreatedAt
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// FormatTask renders one task as an HTML line with a status icon.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	deadline, hasDeadline := task.DeadlineTime()
	switch {
	case task.IsCompleted():
		icon = "✅"
	case hasDeadline && IsDeadlineOverdue(deadline, now):
		icon = "⚠️"
	case hasDeadline && IsDeadlineSoon(deadline, now):
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s <b>#%s</b> %s <i>(%s)</i>", icon, ShortID(task.ID), html.EscapeString(task.Title), task.Category.Label()))
	if hasDeadline {
		sb.WriteString(fmt.Sprintf("\n   📅 %s", FormatDeadline(deadline, now)))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(task.Description)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// ShortID abbreviates a task id for display and command arguments.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
