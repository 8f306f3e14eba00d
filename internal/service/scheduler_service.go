package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
	loc  *time.Location
	now  Clock
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		loc:  loc,
		now:  time.Now,
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleAt registers a job that runs once at the given instant and is then
// removed. Instants that are not in the future are rejected.
func (s *SchedulerService) ScheduleAt(at time.Time, job func()) (cron.EntryID, error) {
	if !at.After(s.now()) {
		return 0, fmt.Errorf("instant %s is not in the future", at.Format(time.RFC3339))
	}

	var (
		mu sync.Mutex
		id cron.EntryID
	)
	// The cron spec has no year field, so the job can trigger on the same
	// date in an earlier year; those runs are skipped.
	wrapped := func() {
		if s.now().Before(at.Truncate(time.Second)) {
			return
		}
		mu.Lock()
		entry := id
		mu.Unlock()
		s.cron.Remove(entry)
		job()
	}

	mu.Lock()
	defer mu.Unlock()
	entry, err := s.cron.AddFunc(buildOnceSpec(at.In(s.loc)), wrapped)
	if err != nil {
		return 0, err
	}
	id = entry
	return entry, nil
}

// Remove cancels a scheduled job. Unknown ids are ignored.
func (s *SchedulerService) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

// Scheduled reports whether the job is still registered.
func (s *SchedulerService) Scheduled(id cron.EntryID) bool {
	return s.cron.Entry(id).Valid()
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	hour, minute, err := ParseClock(timeStr)
	if err != nil {
		return "", err
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

func buildOnceSpec(at time.Time) string {
	return fmt.Sprintf("%d %d %d %d %d *", at.Second(), at.Minute(), at.Hour(), at.Day(), int(at.Month()))
}

// ParseClock parses an HH:MM time of day.
func ParseClock(timeStr string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", timeStr)
	}
	return hour, minute, nil
}
