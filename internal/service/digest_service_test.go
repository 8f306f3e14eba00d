package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/model"
)

type staticLister []model.Task

func (l staticLister) All() []model.Task { return l }

func deadlineAt(t time.Time) *model.Timestamp {
	ts := model.TimestampOf(t)
	return &ts
}

func TestFormatDeadline(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)

	assert.Equal(t, "Today", FormatDeadline(now.Add(3*time.Hour), now))
	assert.Equal(t, "Today", FormatDeadline(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Tomorrow", FormatDeadline(now.Add(20*time.Hour), now))
	assert.Equal(t, "Overdue 2d", FormatDeadline(now.Add(-50*time.Hour), now))
	assert.Equal(t, "15 Mar", FormatDeadline(at(2026, time.March, 15, 9, 0), now))

	// labels follow calendar days, not 24h windows
	late := at(2026, time.March, 10, 23, 0)
	assert.Equal(t, "Tomorrow", FormatDeadline(at(2026, time.March, 11, 1, 0), late))
	assert.Equal(t, "Today", FormatDeadline(at(2026, time.March, 10, 23, 59), late))
	assert.Equal(t, "Overdue 1d", FormatDeadline(at(2026, time.March, 9, 23, 30), at(2026, time.March, 10, 0, 30)))
}

func TestDeadlineWindows(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)

	assert.True(t, IsDeadlineOverdue(now.Add(-time.Minute), now))
	assert.False(t, IsDeadlineOverdue(now.Add(time.Minute), now))
	assert.True(t, IsDeadlineSoon(now.Add(72*time.Hour), now))
	assert.False(t, IsDeadlineSoon(now.Add(73*time.Hour), now))
	assert.False(t, IsDeadlineSoon(now.Add(-time.Hour), now))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Good morning", Greeting(at(2026, time.March, 10, 7, 0)))
	assert.Equal(t, "Good afternoon", Greeting(at(2026, time.March, 10, 13, 0)))
	assert.Equal(t, "Good evening", Greeting(at(2026, time.March, 10, 19, 0)))
	assert.Equal(t, "Good night", Greeting(at(2026, time.March, 10, 22, 0)))
}

func TestParseDeadline(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)

	cases := map[string]time.Time{
		"today":            at(2026, time.March, 10, 23, 59),
		"Tomorrow":         at(2026, time.March, 11, 23, 59),
		"+3d":              at(2026, time.March, 13, 23, 59),
		"2026-04-01":       at(2026, time.April, 1, 23, 59),
		"2026-04-01 18:30": at(2026, time.April, 1, 18, 30),
	}
	for input, want := range cases {
		got, err := ParseDeadline(input, now)
		require.NoError(t, err, input)
		assert.True(t, want.Equal(got), "%s: got %s", input, got)
	}

	for _, bad := range []string{"", "soon", "+xd", "01.04.2026"} {
		_, err := ParseDeadline(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestComputeStats(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)
	done := model.TimestampOf(now)
	tasks := []model.Task{
		{ID: "a", Status: model.StatusPending, Deadline: deadlineAt(now.Add(24 * time.Hour))},
		{ID: "b", Status: model.StatusPending, Deadline: deadlineAt(now.Add(-time.Hour))},
		{ID: "c", Status: model.StatusPending, Deadline: deadlineAt(now.AddDate(0, 0, 10))},
		{ID: "d", Status: model.StatusPending},
		{ID: "e", Status: model.StatusCompleted, CompletedAt: &done, Deadline: deadlineAt(now.Add(-time.Hour))},
	}

	assert.Equal(t, Stats{Total: 5, Pending: 4, Completed: 1, DueSoon: 1, Overdue: 1}, ComputeStats(tasks, now))
}

func TestSortByDeadline(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)
	tasks := []model.Task{
		{ID: "old", CreatedAt: 1},
		{ID: "late", Deadline: deadlineAt(now.AddDate(0, 0, 5))},
		{ID: "new", CreatedAt: 2},
		{ID: "soon", Deadline: deadlineAt(now.AddDate(0, 0, 1))},
	}
	SortByDeadline(tasks)

	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"soon", "late", "new", "old"}, ids)
}

func TestDigestService_DailySummary(t *testing.T) {
	now := at(2026, time.March, 10, 8, 0)
	done := model.TimestampOf(now)
	svc := NewDigestService(staticLister{
		{ID: "11111111-aaaa", Title: "Pay <rent>", Category: model.CategoryPersonal, Status: model.StatusPending, Deadline: deadlineAt(now.Add(-2 * time.Hour))},
		{ID: "22222222-bbbb", Title: "Report", Category: model.CategoryWork, Status: model.StatusPending, Deadline: deadlineAt(now.Add(30 * time.Hour)), Description: "Q1"},
		{ID: "33333333-cccc", Title: "Archived", Status: model.StatusCompleted, CompletedAt: &done},
	})

	text := svc.DailySummary(now)
	assert.Contains(t, text, "Good morning")
	assert.Contains(t, text, "Total <b>3</b>")
	assert.Contains(t, text, "Overdue <b>1</b>")
	assert.Contains(t, text, "Pay &lt;rent&gt;")
	assert.Contains(t, text, "#22222222")
	assert.Contains(t, text, "📝 Q1")
	assert.NotContains(t, text, "Archived")
	assert.Less(t, strings.Index(text, "Pay &lt;rent&gt;"), strings.Index(text, "Report"))

	empty := NewDigestService(staticLister{}).DailySummary(now)
	assert.Contains(t, empty, "nothing pending")
}
