package student

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"student-manager/internal/messaging"
	"student-manager/internal/metrics"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPersistence     = errors.New("persistence failure")
)

// Service owns the in-memory working set and keeps it in step with the
// store. Mutations reach the working set only after the store accepted them.
type Service struct {
	repo      Repository
	validator *Validator
	publisher messaging.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu       sync.RWMutex
	students []Student
}

type Option func(*Service)

// WithClock overrides the clock used for date rules and derived attributes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, publisher messaging.Publisher, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = messaging.Noop{}
	}
	s.validator = NewValidator(repo, s.now)
	return s
}

// Now is the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Load replaces the working set with the full persisted set.
func (s *Service) Load(ctx context.Context) error {
	students, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading students: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	s.students = students
	s.sortLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "loaded students from database", "count", len(students))
	return nil
}

// List returns the working set narrowed by f.
func (s *Service) List(f Filter) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.students)
}

func (s *Service) Get(id int) (*Student, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	target := &Student{ID: id}
	for i := range s.students {
		if s.students[i].Equal(target) {
			found := s.students[i]
			return &found, nil
		}
	}
	return nil, ErrStudentNotFound
}

// Validate normalizes a copy of candidate and runs every rule on it.
func (s *Service) Validate(ctx context.Context, candidate *Student) (ValidationErrors, error) {
	c := *candidate
	c.Normalize()
	return s.validate(ctx, &c)
}

func (s *Service) validate(ctx context.Context, candidate *Student) (ValidationErrors, error) {
	failures, err := s.validator.Validate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	for _, fe := range failures {
		s.metrics.RecordValidationFailure(ctx, fe.Field, fe.Code)
	}
	return failures, nil
}

// Create validates and inserts a new record. A ValidationErrors value is
// returned as the error when any rule fails.
func (s *Service) Create(ctx context.Context, candidate *Student) (*Student, error) {
	if candidate.ID != 0 {
		return nil, fmt.Errorf("%w: new student must not carry an id", ErrInvalidInput)
	}
	candidate.Normalize()

	s.mu.Lock()
	failures, err := s.validate(ctx, candidate)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if len(failures) > 0 {
		s.mu.Unlock()
		return nil, failures
	}

	if _, err := s.repo.Insert(ctx, candidate); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "failed to add student", "student", candidate.String(), "error", err)
		return nil, fmt.Errorf("%w: adding student: %w", ErrPersistence, err)
	}
	s.students = append(s.students, *candidate)
	s.sortLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "student added successfully", "id", candidate.ID, "email", candidate.Email)
	s.metrics.RecordStudentCreated(ctx)
	s.publish(ctx, messaging.EventStudentCreated, candidate)

	created := *candidate
	return &created, nil
}

// Update validates and writes an existing record, keeping its id.
func (s *Service) Update(ctx context.Context, candidate *Student) (*Student, error) {
	if candidate.ID <= 0 {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	candidate.Normalize()

	s.mu.Lock()
	failures, err := s.validate(ctx, candidate)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if len(failures) > 0 {
		s.mu.Unlock()
		return nil, failures
	}

	if err := s.repo.Update(ctx, candidate); err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrStudentNotFound) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to update student", "student", candidate.String(), "error", err)
		return nil, fmt.Errorf("%w: updating student: %w", ErrPersistence, err)
	}
	s.replaceLocked(*candidate)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "student updated successfully", "id", candidate.ID)
	s.metrics.RecordStudentUpdated(ctx)
	s.publish(ctx, messaging.EventStudentUpdated, candidate)

	updated := *candidate
	return &updated, nil
}

// Delete removes the record from the store and then from the working set.
func (s *Service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	if err := s.repo.Remove(ctx, id); err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrStudentNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "failed to delete student", "id", id, "error", err)
		return fmt.Errorf("%w: deleting student: %w", ErrPersistence, err)
	}
	removed := Student{ID: id}
	s.students = slices.DeleteFunc(s.students, func(st Student) bool {
		if st.Equal(&removed) {
			removed = st
			return true
		}
		return false
	})
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "student deleted successfully", "id", id)
	s.metrics.RecordStudentDeleted(ctx)
	s.publish(ctx, messaging.EventStudentDeleted, &removed)
	return nil
}

// ViewStatistics folds over the filtered working set.
func (s *Service) ViewStatistics(f Filter) Statistics {
	return ComputeStatistics(s.List(f))
}

// GlobalStatistics aggregates the full persisted set in the store.
func (s *Service) GlobalStatistics(ctx context.Context) (Statistics, error) {
	stats, err := s.repo.AggregateStatistics(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get statistics", "error", err)
		return Statistics{}, fmt.Errorf("%w: statistics: %w", ErrPersistence, err)
	}
	return stats, nil
}

func (s *Service) Search(ctx context.Context, term string) ([]Student, error) {
	students, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("%w: searching students: %w", ErrPersistence, err)
	}
	return students, nil
}

func (s *Service) ByMajor(ctx context.Context, major string) ([]Student, error) {
	students, err := s.repo.ListByMajor(ctx, major)
	if err != nil {
		return nil, fmt.Errorf("%w: listing by major: %w", ErrPersistence, err)
	}
	return students, nil
}

func (s *Service) HonorStudents(ctx context.Context) ([]Student, error) {
	students, err := s.repo.ListHonor(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing honor students: %w", ErrPersistence, err)
	}
	return students, nil
}

// Majors lists the distinct majors present in the working set.
func (s *Service) Majors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	majors := make([]string, 0, len(s.students))
	for i := range s.students {
		if m := s.students[i].Major; m != "" {
			majors = append(majors, m)
		}
	}
	slices.Sort(majors)
	return slices.Compact(majors)
}

func (s *Service) publish(ctx context.Context, eventType string, st *Student) {
	event := messaging.NewEvent(eventType, st.ID, st.Email, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish student event", "type", eventType, "id", st.ID, "error", err)
	}
}

func (s *Service) replaceLocked(updated Student) {
	for i := range s.students {
		if s.students[i].Equal(&updated) {
			s.students[i] = updated
			s.sortLocked()
			return
		}
	}
	s.students = append(s.students, updated)
	s.sortLocked()
}

func (s *Service) sortLocked() {
	slices.SortStableFunc(s.students, func(a, b Student) int {
		return cmp.Or(cmp.Compare(a.LastName, b.LastName), cmp.Compare(a.FirstName, b.FirstName))
	})
}
