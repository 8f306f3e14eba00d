package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errDeliveryDown = errors.New("delivery unavailable")

// fakeDelivery records calls instead of touching a real notification system.
type fakeDelivery struct {
	seq        int
	registered []Notification
	live       map[string]Notification
	cancelled  []string
	failAt     map[int]bool
	failAll    bool
	cancelErr  error
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{live: make(map[string]Notification), failAt: make(map[int]bool)}
}

func (f *fakeDelivery) Register(_ context.Context, n Notification) (string, error) {
	f.seq++
	if f.failAll || f.failAt[f.seq] {
		return "", errDeliveryDown
	}
	handle := fmt.Sprintf("h%d", f.seq)
	f.registered = append(f.registered, n)
	f.live[handle] = n
	return handle, nil
}

func (f *fakeDelivery) Cancel(_ context.Context, handle string) error {
	f.cancelled = append(f.cancelled, handle)
	delete(f.live, handle)
	return f.cancelErr
}

func (f *fakeDelivery) cancelCount(handle string) int {
	n := 0
	for _, h := range f.cancelled {
		if h == handle {
			n++
		}
	}
	return n
}

// memStorage keeps the serialized collection in memory.
type memStorage struct {
	data    string
	ok      bool
	saves   int
	loadErr error
	saveErr error
}

func (m *memStorage) Save(_ context.Context, data string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = data
	m.ok = true
	return nil
}

func (m *memStorage) Load(_ context.Context) (string, bool, error) {
	if m.loadErr != nil {
		return "", false, m.loadErr
	}
	return m.data, m.ok, nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var testZone = time.FixedZone("UTC+3", 3*60*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, testZone)
}
