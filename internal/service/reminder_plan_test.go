package service

import (
	"sort"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/model"
)

func instants(plan []Reminder) []time.Time {
	if len(plan) == 0 {
		return nil
	}
	out := make([]time.Time, len(plan))
	for i, r := range plan {
		out[i] = r.At
	}
	return out
}

func TestPlanReminders_DeadlineLaterToday(t *testing.T) {
	now := at(2026, time.March, 10, 8, 0)
	plan := PlanReminders(at(2026, time.March, 10, 14, 0), now)

	require.Len(t, plan, 1)
	assert.Equal(t, ReminderFinal, plan[0].Kind)
	assert.True(t, plan[0].At.Equal(at(2026, time.March, 10, 9, 0)))
}

func TestPlanReminders_FiveDaysOut(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)
	plan := PlanReminders(now.AddDate(0, 0, 5), now)

	require.Len(t, plan, 3)
	assert.Equal(t, []time.Time{
		at(2026, time.March, 11, 10, 0),
		at(2026, time.March, 13, 10, 0),
		at(2026, time.March, 15, 9, 0),
	}, instants(plan))
	assert.Equal(t, ReminderRegular, plan[0].Kind)
	assert.Equal(t, 4, plan[0].DaysUntilDeadline)
	assert.Equal(t, ReminderRegular, plan[1].Kind)
	assert.Equal(t, 2, plan[1].DaysUntilDeadline)
	assert.Equal(t, ReminderFinal, plan[2].Kind)
}

func TestPlanReminders_LateEveningBeforeDeadline(t *testing.T) {
	now := at(2026, time.March, 9, 23, 58)
	plan := PlanReminders(at(2026, time.March, 10, 18, 0), now)

	require.Len(t, plan, 1)
	assert.Equal(t, ReminderFinal, plan[0].Kind)
	assert.True(t, plan[0].At.Equal(at(2026, time.March, 10, 9, 0)))
}

func TestPlanReminders_PastDeadlineDay(t *testing.T) {
	now := at(2026, time.March, 10, 8, 0)
	assert.Empty(t, PlanReminders(at(2026, time.March, 9, 23, 59), now))
	assert.Empty(t, PlanReminders(at(2025, time.December, 1, 12, 0), now))
}

func TestPlanReminders_OneMinuteGuard(t *testing.T) {
	deadline := at(2026, time.March, 10, 17, 0)

	assert.Empty(t, PlanReminders(deadline, time.Date(2026, time.March, 10, 8, 59, 30, 0, testZone)), "final reminder 30s ahead")
	assert.Empty(t, PlanReminders(deadline, at(2026, time.March, 10, 8, 59)), "final reminder exactly 1m ahead")
	assert.Empty(t, PlanReminders(deadline, at(2026, time.March, 10, 9, 0)))

	plan := PlanReminders(deadline, at(2026, time.March, 10, 8, 58))
	require.Len(t, plan, 1)

	// offset 2 falls on today at 10:00, 30s from now
	plan = PlanReminders(at(2026, time.March, 12, 12, 0), time.Date(2026, time.March, 10, 9, 59, 30, 0, testZone))
	require.Len(t, plan, 1)
	assert.Equal(t, ReminderFinal, plan[0].Kind)
}

func TestPlanReminders_EveryEvenOffset(t *testing.T) {
	now := at(2026, time.March, 1, 12, 0)
	for n := 0; n <= 21; n++ {
		deadline := now.AddDate(0, 0, n)
		plan := PlanReminders(deadline, now)

		var want []time.Time
		final := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 9, 0, 0, 0, testZone)
		if final.Sub(now) > time.Minute {
			want = append(want, final)
		}
		for o := 2; o <= n; o += 2 {
			d := deadline.AddDate(0, 0, -o)
			regular := time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, testZone)
			if regular.Sub(now) > time.Minute {
				want = append(want, regular)
			}
		}
		sort.Slice(want, func(i, j int) bool { return want[i].Before(want[j]) })

		assert.Equal(t, want, instants(plan), "deadline %d days out", n)
		assert.True(t, sort.SliceIsSorted(plan, func(i, j int) bool { return plan[i].At.Before(plan[j].At) }))
	}
}

func TestPlanReminders_UsesNowLocation(t *testing.T) {
	// 23:30 UTC on the 9th is already the 10th in UTC+3.
	deadline := time.Date(2026, time.March, 9, 23, 30, 0, 0, time.UTC)
	now := at(2026, time.March, 9, 12, 0)

	plan := PlanReminders(deadline, now)
	require.Len(t, plan, 1)
	assert.True(t, plan[0].At.Equal(at(2026, time.March, 10, 9, 0)))
}

func TestPlanReminders_AcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// clocks move forward on 2026-03-08
	now := time.Date(2026, time.March, 6, 12, 0, 0, 0, ny)
	deadline := time.Date(2026, time.March, 10, 12, 0, 0, 0, ny)

	plan := PlanReminders(deadline, now)
	assert.Equal(t, []time.Time{
		time.Date(2026, time.March, 8, 10, 0, 0, 0, ny),
		time.Date(2026, time.March, 10, 9, 0, 0, 0, ny),
	}, instants(plan))
}

func TestReminder_Notification(t *testing.T) {
	final := Reminder{At: at(2026, time.March, 10, 9, 0), Kind: ReminderFinal}.Notification("t1", "Ship it")
	assert.Equal(t, model.PriorityHigh, final.Priority)
	assert.Equal(t, "t1", final.TaskID)
	assert.Contains(t, final.Body, `"Ship it" is due today`)

	regular := Reminder{At: at(2026, time.March, 8, 10, 0), Kind: ReminderRegular, DaysUntilDeadline: 2}.Notification("t1", "Ship it")
	assert.Equal(t, model.PriorityDefault, regular.Priority)
	assert.Contains(t, regular.Body, `Due in 2 days: "Ship it"`)
	assert.True(t, regular.At.Equal(at(2026, time.March, 8, 10, 0)))

	assert.Equal(t, "Due in 1 day", dueIn(1))
	assert.Equal(t, "Due today", dueIn(0))
}
