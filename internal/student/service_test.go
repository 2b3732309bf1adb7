package student

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"student-manager/internal/logger"
	"student-manager/internal/messaging"
	"student-manager/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger { return logger.Discard() }

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// flakyRepository fails every write while failWrites is set.
type flakyRepository struct {
	Repository
	failWrites bool
}

var errDiskFull = errors.New("disk I/O error")

func (r *flakyRepository) Insert(ctx context.Context, s *Student) (int, error) {
	if r.failWrites {
		return 0, errDiskFull
	}
	return r.Repository.Insert(ctx, s)
}

func (r *flakyRepository) Update(ctx context.Context, s *Student) error {
	if r.failWrites {
		return errDiskFull
	}
	return r.Repository.Update(ctx, s)
}

func (r *flakyRepository) Remove(ctx context.Context, id int) error {
	if r.failWrites {
		return errDiskFull
	}
	return r.Repository.Remove(ctx, id)
}

type serviceFixture struct {
	service   *Service
	repo      *flakyRepository
	publisher *recordingPublisher
	samples   []Student
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	base, _ := newSQLiteRepository(t)
	samples := insertSamples(t, base)

	repo := &flakyRepository{Repository: base}
	publisher := &recordingPublisher{}
	service := NewService(repo, publisher, testLogger(), metrics.NewMock(), WithClock(fixedClock))
	require.NoError(t, service.Load(context.Background()))

	return &serviceFixture{service: service, repo: repo, publisher: publisher, samples: samples}
}

func TestService_Load(t *testing.T) {
	f := newServiceFixture(t)

	students := f.service.List(Filter{})
	require.Len(t, students, 8)
	assert.Equal(t, "Brown", students[0].LastName)
	assert.Equal(t, "Wilson", students[7].LastName)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newServiceFixture(t)
		candidate := validStudent()
		candidate.Email = "  Ada.Lovelace@University.edu "
		candidate.GPA = 3.456

		created, err := f.service.Create(ctx, &candidate)
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.Equal(t, "ada.lovelace@university.edu", created.Email)
		assert.InDelta(t, 3.46, created.GPA, 1e-9)

		got, err := f.service.Get(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Email, got.Email)
		assert.Len(t, f.service.List(Filter{}), 9)
		assert.Equal(t, []string{messaging.EventStudentCreated}, f.publisher.types())
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		f := newServiceFixture(t)
		candidate := validStudent()
		candidate.Age = 12
		candidate.FirstName = ""

		_, err := f.service.Create(ctx, &candidate)
		var failures ValidationErrors
		require.ErrorAs(t, err, &failures)
		assert.Equal(t, map[string]string{"firstName": CodeRequired, "age": CodeInvalidRange}, failures.Fields())
		assert.Len(t, f.service.List(Filter{}), 8)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		f := newServiceFixture(t)
		candidate := validStudent()
		candidate.Email = "JOHN.DOE@university.edu"

		_, err := f.service.Create(ctx, &candidate)
		var failures ValidationErrors
		require.ErrorAs(t, err, &failures)
		assert.True(t, failures.Has("email", CodeAlreadyExists))
	})

	t.Run("PresetIDRejected", func(t *testing.T) {
		f := newServiceFixture(t)
		candidate := validStudent()
		candidate.ID = 42

		_, err := f.service.Create(ctx, &candidate)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("PersistenceFailureLeavesWorkingSet", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.failWrites = true
		candidate := validStudent()

		_, err := f.service.Create(ctx, &candidate)
		require.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, errDiskFull)
		assert.Len(t, f.service.List(Filter{}), 8)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("PublishFailureDoesNotFailCreate", func(t *testing.T) {
		f := newServiceFixture(t)
		f.publisher.err = errors.New("nats: connection closed")
		candidate := validStudent()

		_, err := f.service.Create(ctx, &candidate)
		require.NoError(t, err)
		assert.Len(t, f.service.List(Filter{}), 9)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newServiceFixture(t)
		jane := f.samples[1]
		jane.SetLastName("Aaronson")
		jane.SetGPA(3.1)

		updated, err := f.service.Update(ctx, &jane)
		require.NoError(t, err)
		assert.Equal(t, jane.ID, updated.ID)

		students := f.service.List(Filter{})
		require.Len(t, students, 8)
		assert.Equal(t, jane.ID, students[0].ID, "working set stays sorted by name")
		assert.InDelta(t, 3.1, students[0].GPA, 1e-9)
		assert.Equal(t, []string{messaging.EventStudentUpdated}, f.publisher.types())
	})

	t.Run("KeepsOwnEmail", func(t *testing.T) {
		f := newServiceFixture(t)
		john := f.samples[0]
		john.Email = "JOHN.DOE@UNIVERSITY.EDU"

		_, err := f.service.Update(ctx, &john)
		require.NoError(t, err)
	})

	t.Run("EmailOfAnotherRecord", func(t *testing.T) {
		f := newServiceFixture(t)
		john := f.samples[0]
		john.Email = "jane.smith@university.edu"

		_, err := f.service.Update(ctx, &john)
		var failures ValidationErrors
		require.ErrorAs(t, err, &failures)
		assert.True(t, failures.Has("email", CodeAlreadyExists))
	})

	t.Run("MissingID", func(t *testing.T) {
		f := newServiceFixture(t)
		candidate := validStudent()

		_, err := f.service.Update(ctx, &candidate)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("UnknownID", func(t *testing.T) {
		f := newServiceFixture(t)
		candidate := validStudent()
		candidate.ID = 999

		_, err := f.service.Update(ctx, &candidate)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("PersistenceFailureLeavesWorkingSet", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.failWrites = true
		john := f.samples[0]
		john.SetMajor("Philosophy")

		_, err := f.service.Update(ctx, &john)
		require.ErrorIs(t, err, ErrPersistence)

		got, err := f.service.Get(john.ID)
		require.NoError(t, err)
		assert.Equal(t, "Computer Science", got.Major)
		assert.Empty(t, f.publisher.types())
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newServiceFixture(t)
		id := f.samples[2].ID

		require.NoError(t, f.service.Delete(ctx, id))
		_, err := f.service.Get(id)
		assert.ErrorIs(t, err, ErrStudentNotFound)
		assert.Len(t, f.service.List(Filter{}), 7)
		assert.Equal(t, []string{messaging.EventStudentDeleted}, f.publisher.types())

		event := f.publisher.events[0]
		assert.Equal(t, id, event.StudentID)
		assert.Equal(t, f.samples[2].Email, event.Email)
		assert.NotEmpty(t, event.Email)
	})

	t.Run("InvalidID", func(t *testing.T) {
		f := newServiceFixture(t)
		assert.ErrorIs(t, f.service.Delete(ctx, 0), ErrInvalidInput)
	})

	t.Run("Unknown", func(t *testing.T) {
		f := newServiceFixture(t)
		assert.ErrorIs(t, f.service.Delete(ctx, 999), ErrStudentNotFound)
	})

	t.Run("PersistenceFailureLeavesWorkingSet", func(t *testing.T) {
		f := newServiceFixture(t)
		f.repo.failWrites = true

		err := f.service.Delete(ctx, f.samples[2].ID)
		require.ErrorIs(t, err, ErrPersistence)
		assert.Len(t, f.service.List(Filter{}), 8)
	})
}

func TestService_Validate(t *testing.T) {
	f := newServiceFixture(t)
	candidate := validStudent()
	candidate.Email = " JANE.SMITH@university.edu "

	failures, err := f.service.Validate(context.Background(), &candidate)
	require.NoError(t, err)
	assert.True(t, failures.Has("email", CodeAlreadyExists))
	assert.Equal(t, " JANE.SMITH@university.edu ", candidate.Email, "candidate is not modified")
}

func TestService_Statistics(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	view := f.service.ViewStatistics(Filter{Major: "Computer Science"})
	assert.Equal(t, 2, view.Count)
	assert.InDelta(t, 3.85, view.MeanGPA, 1e-9)
	assert.Equal(t, 2, view.HonorCount)

	global, err := f.service.GlobalStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, global.Count)
	assert.Equal(t, 5, global.HonorCount)
}

func TestService_StoreQueries(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	found, err := f.service.Search(ctx, "smith")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Jane", found[0].FirstName)

	byMajor, err := f.service.ByMajor(ctx, "Physics")
	require.NoError(t, err)
	require.Len(t, byMajor, 1)

	honor, err := f.service.HonorStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, honor, 5)
}

func TestService_Majors(t *testing.T) {
	f := newServiceFixture(t)
	assert.Equal(t, []string{
		"Biology", "Chemistry", "Computer Science", "English",
		"History", "Mathematics", "Physics",
	}, f.service.Majors())
}

func TestService_ConcurrentReadsAndWrites(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = f.service.List(Filter{HonorOnly: true})
				_ = f.service.ViewStatistics(Filter{})
			}
		}()
		go func(i int) {
			defer wg.Done()
			s := validStudent()
			s.Email = "concurrent" + string(rune('a'+i)) + "@university.edu"
			_, err := f.service.Create(ctx, &s)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.service.List(Filter{}), 12)
	assert.WithinDuration(t, fixedNow, f.service.Now(), time.Second)
}
