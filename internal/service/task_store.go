package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrInvalidCategory = errors.New("invalid category")
	ErrTaskNotFound    = errors.New("task not found")
	ErrAmbiguousID     = errors.New("task id matches more than one task")
	ErrStoreNotReady   = errors.New("task store is not initialized")
	ErrStoreClosed     = errors.New("task store is closed")
)

// CollectionStorage persists the serialized task collection.
type CollectionStorage interface {
	Save(ctx context.Context, data string) error
	Load(ctx context.Context) (string, bool, error)
}

// Reminders is the part of ReminderScheduler the store depends on.
type Reminders interface {
	Schedule(ctx context.Context, taskID, title string, deadline time.Time) []string
	Cancel(ctx context.Context, handles []string)
	Reschedule(ctx context.Context, taskID, title string, oldHandles []string, newDeadline time.Time) []string
}

// NewTask represents data required to create a task.
type NewTask struct {
	Title       string
	Description string
	Category    model.Category
	Deadline    *time.Time
}

// TaskPatch lists the fields to change. Nil fields are left alone.
// ClearDeadline removes the deadline and wins over Deadline.
type TaskPatch struct {
	Title         *string
	Description   *string
	Category      *model.Category
	Deadline      *time.Time
	ClearDeadline bool
}

type StoreOption func(*TaskStore)

func WithClock(now Clock) StoreOption {
	return func(s *TaskStore) { s.now = now }
}

func WithIDGenerator(newID func() string) StoreOption {
	return func(s *TaskStore) { s.newID = newID }
}

// TaskStore owns the task collection. Every mutation is written through to
// storage after the in-memory collection has changed.
type TaskStore struct {
	storage   CollectionStorage
	reminders Reminders
	now       Clock
	newID     func() string

	mu     sync.Mutex
	tasks  []model.Task
	ready  bool
	closed bool
}

func NewTaskStore(storage CollectionStorage, reminders Reminders, opts ...StoreOption) *TaskStore {
	s := &TaskStore{
		storage:   storage,
		reminders: reminders,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted collection. Missing, unreadable or
// malformed state leaves the store empty.
func (s *TaskStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.ready {
		return nil
	}

	s.tasks = s.load(ctx)
	s.ready = true
	log.Printf("[info] task store loaded %d tasks", len(s.tasks))
	return nil
}

func (s *TaskStore) load(ctx context.Context) []model.Task {
	raw, ok, err := s.storage.Load(ctx)
	if err != nil {
		log.Printf("load tasks: %v", err)
		return []model.Task{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Task{}
	}
	tasks, err := DecodeTasks(raw)
	if err != nil {
		log.Printf("decode tasks: %v", err)
		return []model.Task{}
	}
	return tasks
}

// Dispose closes the store. Later calls fail with ErrStoreClosed.
func (s *TaskStore) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tasks = nil
}

func (s *TaskStore) checkLocked() error {
	switch {
	case s.closed:
		return ErrStoreClosed
	case !s.ready:
		return ErrStoreNotReady
	}
	return nil
}

func (s *TaskStore) Add(ctx context.Context, input NewTask) (model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	category := input.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !category.Valid() {
		return model.Task{}, ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		ID:              s.newID(),
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Category:        category,
		Status:          model.StatusPending,
		CreatedAt:       model.TimestampOf(s.now()),
		ReminderHandles: []string{},
	}
	if input.Deadline != nil {
		deadline := model.TimestampOf(*input.Deadline)
		task.Deadline = &deadline
		task.ReminderHandles = s.reminders.Schedule(ctx, task.ID, task.Title, deadline.Time())
	}

	s.tasks = append([]model.Task{task}, s.tasks...)
	s.persistLocked(ctx)
	log.Printf("[info] task created id=%s deadline=%t reminders=%d", task.ID, task.Deadline != nil, len(task.ReminderHandles))
	return task.Clone(), nil
}

func (s *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) (model.Task, error) {
	var title string
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Task{}, ErrEmptyTitle
		}
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return model.Task{}, ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return model.Task{}, err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	before := s.tasks[idx]
	after := before.Clone()

	if patch.Title != nil {
		after.Title = title
	}
	if patch.Description != nil {
		after.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		after.Category = *patch.Category
	}
	switch {
	case patch.ClearDeadline:
		after.Deadline = nil
	case patch.Deadline != nil:
		deadline := model.TimestampOf(*patch.Deadline)
		after.Deadline = &deadline
	}

	after.ReminderHandles = s.syncReminders(ctx, before, after)
	s.tasks[idx] = after
	s.persistLocked(ctx)
	return after.Clone(), nil
}

// syncReminders returns the handles the updated task should carry.
func (s *TaskStore) syncReminders(ctx context.Context, before, after model.Task) []string {
	deadlineChanged := !sameDeadline(before.Deadline, after.Deadline)
	titleChanged := before.Title != after.Title

	switch {
	case after.IsCompleted():
		if deadlineChanged && len(before.ReminderHandles) > 0 {
			s.reminders.Cancel(ctx, before.ReminderHandles)
			return []string{}
		}
		return before.ReminderHandles
	case deadlineChanged && after.Deadline == nil:
		s.reminders.Cancel(ctx, before.ReminderHandles)
		return []string{}
	case deadlineChanged:
		return s.reminders.Reschedule(ctx, after.ID, after.Title, before.ReminderHandles, after.Deadline.Time())
	case titleChanged && len(before.ReminderHandles) > 0 && after.Deadline != nil:
		return s.reminders.Reschedule(ctx, after.ID, after.Title, before.ReminderHandles, after.Deadline.Time())
	default:
		return before.ReminderHandles
	}
}

func sameDeadline(a, b *model.Timestamp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Toggle flips a task between pending and completed.
func (s *TaskStore) Toggle(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return model.Task{}, err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, ErrTaskNotFound
	}

	var task model.Task
	if s.tasks[idx].IsCompleted() {
		task = s.reopenLocked(ctx, idx)
	} else {
		task = s.completeLocked(ctx, idx)
	}
	s.persistLocked(ctx)
	log.Printf("[info] task toggled id=%s status=%s", task.ID, task.Status)
	return task.Clone(), nil
}

// Complete marks a task completed. A task that is already completed is
// returned unchanged with changed set to false, and nothing is written.
func (s *TaskStore) Complete(ctx context.Context, id string) (task model.Task, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return model.Task{}, false, err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, false, ErrTaskNotFound
	}
	if s.tasks[idx].IsCompleted() {
		return s.tasks[idx].Clone(), false, nil
	}

	task = s.completeLocked(ctx, idx)
	s.persistLocked(ctx)
	log.Printf("[info] task completed id=%s", task.ID)
	return task.Clone(), true, nil
}

func (s *TaskStore) completeLocked(ctx context.Context, idx int) model.Task {
	task := s.tasks[idx].Clone()
	completedAt := model.TimestampOf(s.now())
	task.Status = model.StatusCompleted
	task.CompletedAt = &completedAt
	if len(task.ReminderHandles) > 0 {
		s.reminders.Cancel(ctx, task.ReminderHandles)
	}
	task.ReminderHandles = []string{}
	s.tasks[idx] = task
	return task
}

func (s *TaskStore) reopenLocked(ctx context.Context, idx int) model.Task {
	task := s.tasks[idx].Clone()
	task.Status = model.StatusPending
	task.CompletedAt = nil
	if deadline, ok := task.DeadlineTime(); ok {
		task.ReminderHandles = s.reminders.Schedule(ctx, task.ID, task.Title, deadline)
	}
	s.tasks[idx] = task
	return task
}

// Delete removes a task and cancels its reminders. Unknown ids are ignored.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	if handles := s.tasks[idx].ReminderHandles; len(handles) > 0 {
		s.reminders.Cancel(ctx, handles)
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	s.persistLocked(ctx)
	log.Printf("[info] task deleted id=%s", id)
	return nil
}

// ClearCompleted removes every completed task in a single write and
// returns how many were removed.
func (s *TaskStore) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return 0, err
	}

	kept := make([]model.Task, 0, len(s.tasks))
	removed := 0
	for _, task := range s.tasks {
		if !task.IsCompleted() {
			kept = append(kept, task)
			continue
		}
		if len(task.ReminderHandles) > 0 {
			s.reminders.Cancel(ctx, task.ReminderHandles)
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}

	s.tasks = kept
	s.persistLocked(ctx)
	log.Printf("[info] cleared %d completed tasks", removed)
	return removed, nil
}

// All returns every task, most recent first.
func (s *TaskStore) All() []model.Task {
	return s.filter(func(model.Task) bool { return true })
}

func (s *TaskStore) Pending() []model.Task {
	return s.filter(func(t model.Task) bool { return t.Status == model.StatusPending })
}

func (s *TaskStore) Completed() []model.Task {
	return s.filter(func(t model.Task) bool { return t.Status == model.StatusCompleted })
}

func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

// FindByPrefix resolves an abbreviated id. A prefix shared by several tasks
// fails with ErrAmbiguousID.
func (s *TaskStore) FindByPrefix(prefix string) (model.Task, error) {
	prefix = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(prefix), "#"))
	if prefix == "" {
		return model.Task{}, ErrTaskNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var match *model.Task
	for i := range s.tasks {
		if !strings.HasPrefix(s.tasks[i].ID, prefix) {
			continue
		}
		if match != nil {
			return model.Task{}, ErrAmbiguousID
		}
		match = &s.tasks[i]
	}
	if match == nil {
		return model.Task{}, ErrTaskNotFound
	}
	return match.Clone(), nil
}

// LiveHandles returns every reminder handle currently held by a task.
func (s *TaskStore) LiveHandles() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make(map[string]bool)
	for _, task := range s.tasks {
		for _, handle := range task.ReminderHandles {
			live[handle] = true
		}
	}
	return live
}

func (s *TaskStore) filter(keep func(model.Task) bool) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if keep(task) {
			out = append(out, task.Clone())
		}
	}
	return out
}

func (s *TaskStore) indexLocked(id string) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

// persistLocked writes the full collection. Failures are logged; the
// in-memory collection stays authoritative.
func (s *TaskStore) persistLocked(ctx context.Context) {
	data, err := EncodeTasks(s.tasks)
	if err != nil {
		log.Printf("encode tasks: %v", err)
		return
	}
	if err := s.storage.Save(ctx, data); err != nil {
		log.Printf("save tasks: %v", err)
	}
}

// EncodeTasks serializes the collection as a JSON array.
func EncodeTasks(tasks []model.Task) (string, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeTasks parses a JSON array produced by EncodeTasks. Records without
// an id or title, with a repeated id or with an unknown status are dropped;
// other inconsistencies are repaired. Both are logged.
func DecodeTasks(raw string) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, err
	}

	out := make([]model.Task, 0, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for i, task := range tasks {
		if reason := rejectTask(task, seen); reason != "" {
			log.Printf("drop stored task #%d id=%q: %s", i, task.ID, reason)
			continue
		}
		seen[task.ID] = true
		if fixes := repairTask(&task); len(fixes) > 0 {
			log.Printf("repair stored task id=%s: %s", task.ID, strings.Join(fixes, ", "))
		}
		out = append(out, task)
	}
	return out, nil
}

func rejectTask(task model.Task, seen map[string]bool) string {
	switch {
	case strings.TrimSpace(task.ID) == "":
		return "missing id"
	case seen[task.ID]:
		return "duplicate id"
	case strings.TrimSpace(task.Title) == "":
		return "empty title"
	case task.Status != model.StatusPending && task.Status != model.StatusCompleted:
		return fmt.Sprintf("unknown status %q", task.Status)
	}
	return ""
}

// repairTask restores the invariants between status, completedAt and the
// reminder handles.
func repairTask(task *model.Task) []string {
	var fixes []string
	if task.ReminderHandles == nil {
		task.ReminderHandles = []string{}
	}
	if !task.Category.Valid() {
		fixes = append(fixes, fmt.Sprintf("category %q reset", task.Category))
		task.Category = model.CategoryOther
	}
	switch {
	case task.IsCompleted() && task.CompletedAt == nil:
		completedAt := task.CreatedAt
		task.CompletedAt = &completedAt
		fixes = append(fixes, "completedAt set")
	case !task.IsCompleted() && task.CompletedAt != nil:
		task.CompletedAt = nil
		fixes = append(fixes, "completedAt cleared")
	}
	if len(task.ReminderHandles) > 0 && (task.IsCompleted() || task.Deadline == nil) {
		task.ReminderHandles = []string{}
		fixes = append(fixes, "reminder handles cleared")
	}
	return fixes
}
