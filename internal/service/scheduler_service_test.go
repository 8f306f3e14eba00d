package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 8 * * *", spec)

	for _, bad := range []string{"8", "24:00", "12:60", "ab:cd", ""} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildOnceSpec(t *testing.T) {
	assert.Equal(t, "5 0 9 15 3 *", buildOnceSpec(time.Date(2026, time.March, 15, 9, 0, 5, 0, time.UTC)))
}

func TestSchedulerService_ScheduleAt(t *testing.T) {
	s := NewSchedulerService(testZone)
	clock := &fakeClock{t: at(2026, time.March, 10, 12, 0)}
	s.now = clock.Now

	_, err := s.ScheduleAt(clock.t, func() {})
	assert.Error(t, err)
	_, err = s.ScheduleAt(clock.t.Add(-time.Hour), func() {})
	assert.Error(t, err)

	id, err := s.ScheduleAt(clock.t.Add(48*time.Hour), func() {})
	require.NoError(t, err)
	assert.True(t, s.Scheduled(id))

	next := s.cron.Entry(id).Schedule.Next(clock.t)
	assert.True(t, next.Equal(at(2026, time.March, 12, 12, 0)), next.String())

	s.Remove(id)
	assert.False(t, s.Scheduled(id))
}

func TestSchedulerService_ScheduleAtSkipsEarlierYears(t *testing.T) {
	s := NewSchedulerService(testZone)
	clock := &fakeClock{t: at(2026, time.March, 10, 12, 0)}
	s.now = clock.Now

	runs := 0
	target := at(2027, time.March, 11, 9, 0)
	id, err := s.ScheduleAt(target, func() { runs++ })
	require.NoError(t, err)

	job := s.cron.Entry(id).WrappedJob
	clock.t = at(2026, time.March, 11, 9, 0)
	job.Run()
	assert.Zero(t, runs)
	assert.True(t, s.Scheduled(id))

	clock.t = target
	job.Run()
	assert.Equal(t, 1, runs)
	assert.False(t, s.Scheduled(id))
}

func TestSchedulerService_ScheduleDaily(t *testing.T) {
	s := NewSchedulerService(testZone)

	id, err := s.ScheduleDaily("07:15", func() {})
	require.NoError(t, err)
	next := s.cron.Entry(id).Schedule.Next(at(2026, time.March, 10, 12, 0))
	assert.True(t, next.Equal(at(2026, time.March, 11, 7, 15)))

	_, err = s.ScheduleDaily("7", func() {})
	assert.Error(t, err)
}
