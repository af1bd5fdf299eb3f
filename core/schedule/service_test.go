package schedule_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/services/lock"
	"github.com/trezcool/darasa/storage/database/inmem"
)

var (
	anything = core.LookupFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	school   = auth.Principal{ID: "sch", SchoolID: "sch", Role: auth.RoleSchool}
)

func newService(repo schedule.Repository) *schedule.Service {
	return schedule.NewService(repo, schedule.Options{
		Teachers: anything,
		Classes:  anything,
		Subjects: anything,
		Locker:   locksvc.NewLocal(),
	})
}

func newSchedule(t *testing.T, teacher, date, start, end string) schedule.NewSchedule {
	t.Helper()
	ns := schedule.NewSchedule{Teacher: teacher, Subject: "sub", Class: "cls", Date: date, StartTime: start, EndTime: end}
	require.NoError(t, ns.Validate(validator.New()))
	return ns
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 3, 1, h, 0, 0, 0, time.UTC) }
	tests := []struct {
		name                   string
		aStart, aEnd, bS, bEnd time.Time
		want                   bool
	}{
		{name: "same range", aStart: at(9), aEnd: at(10), bS: at(9), bEnd: at(10), want: true},
		{name: "partial", aStart: at(9), aEnd: at(11), bS: at(10), bEnd: at(12), want: true},
		{name: "contained", aStart: at(9), aEnd: at(12), bS: at(10), bEnd: at(11), want: true},
		{name: "back to back", aStart: at(9), aEnd: at(10), bS: at(10), bEnd: at(11)},
		{name: "disjoint", aStart: at(9), aEnd: at(10), bS: at(11), bEnd: at(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Overlaps(tt.aStart, tt.aEnd, tt.bS, tt.bEnd))
			assert.Equal(t, tt.want, schedule.Overlaps(tt.bS, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		name             string
		date, start, end string
		wantStart        time.Time
		wantErr          bool
	}{
		{name: "time of day", date: "2024-03-01", start: "09:00", end: "10:30", wantStart: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{name: "timestamps", start: "2024-03-01T10:00:00+01:00", end: "2024-03-01T11:00:00+01:00", wantStart: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{name: "end before start", date: "2024-03-01", start: "10:00", end: "09:00", wantErr: true},
		{name: "empty range", date: "2024-03-01", start: "10:00", end: "10:00", wantErr: true},
		{name: "bad time", date: "2024-03-01", start: "9am", end: "10:00", wantErr: true},
		{name: "time of day without date", start: "09:00", end: "10:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _, err := schedule.ParseSlot(tt.date, tt.start, tt.end)
			if tt.wantErr {
				var verr *core.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
		})
	}
}

func TestNewSchedule_UnmarshalJSON(t *testing.T) {
	var ns schedule.NewSchedule
	require.NoError(t, json.Unmarshal([]byte(`{"teacher":"t1","subject":"sub","selectedClass":"cls","date":"2024-03-01","startTime":"09:00","endTime":"10:00"}`), &ns))
	assert.Equal(t, schedule.NewSchedule{Teacher: "t1", Subject: "sub", Class: "cls", Date: "2024-03-01", StartTime: "09:00", EndTime: "10:00"}, ns)

	ns = schedule.NewSchedule{}
	require.NoError(t, json.Unmarshal([]byte(`{"class":"cls","selectedClass":"other"}`), &ns))
	assert.Equal(t, "cls", ns.Class)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, schedule.StatusActive.CanTransitionTo(schedule.StatusCancelled))
	assert.True(t, schedule.StatusActive.CanTransitionTo(schedule.StatusCompleted))
	assert.False(t, schedule.StatusCancelled.CanTransitionTo(schedule.StatusActive))
	assert.False(t, schedule.StatusCompleted.CanTransitionTo(schedule.StatusCancelled))
	assert.True(t, schedule.StatusActive.CanBeSetTo(schedule.StatusCancelled))
	assert.False(t, schedule.StatusActive.CanBeSetTo(schedule.StatusCompleted))
	assert.True(t, schedule.StatusCompleted.IsTerminal())
	assert.False(t, schedule.StatusActive.IsTerminal())
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newService(inmemdb.NewScheduleRepository(inmemdb.Open()))

	first, err := svc.Create(ctx, school, newSchedule(t, "t1", "2024-03-01", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusActive, first.Status)
	assert.NotEmpty(t, first.ID)

	_, err = svc.Create(ctx, school, newSchedule(t, "t1", "2024-03-01", "09:30", "10:30"))
	assert.Equal(t, schedule.ErrOverlap, err)

	_, err = svc.Create(ctx, school, newSchedule(t, "t1", "2024-03-01", "10:00", "11:00"))
	assert.NoError(t, err, "back to back bookings are allowed")

	_, err = svc.Create(ctx, school, newSchedule(t, "t2", "2024-03-01", "09:00", "10:00"))
	assert.NoError(t, err, "other teachers are free")

	teacher := auth.Principal{ID: "t3", SchoolID: school.SchoolID, Role: auth.RoleTeacher}
	_, err = svc.Create(ctx, teacher, newSchedule(t, "t1", "2024-03-02", "09:00", "10:00"))
	assert.Equal(t, schedule.ErrOwnBookingsOnly, err)
}

func TestService_Create_refs(t *testing.T) {
	nothing := core.LookupFunc(func(context.Context, string, string) (bool, error) { return false, nil })
	svc := schedule.NewService(inmemdb.NewScheduleRepository(inmemdb.Open()), schedule.Options{
		Teachers: anything,
		Classes:  nothing,
		Subjects: nothing,
		Locker:   locksvc.NewLocal(),
	})

	_, err := svc.Create(context.Background(), school, newSchedule(t, "t1", "2024-03-01", "09:00", "10:00"))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestService_Create_concurrent(t *testing.T) {
	ctx := context.Background()
	svc := newService(inmemdb.NewScheduleRepository(inmemdb.Open()))

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		booked    int
		conflicts int
	)
	for i := 0; i < n; i++ {
		ns := newSchedule(t, "t1", "2024-03-01", "09:00", "10:00")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, school, ns)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				booked++
			case schedule.ErrOverlap:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, n-1, conflicts)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	v := validator.New()
	svc := newService(inmemdb.NewScheduleRepository(inmemdb.Open()))

	s, err := svc.Create(ctx, school, newSchedule(t, "t1", "2024-03-01", "09:00", "10:00"))
	require.NoError(t, err)
	other, err := svc.Create(ctx, school, newSchedule(t, "t1", "2024-03-01", "11:00", "12:00"))
	require.NoError(t, err)

	t.Run("shift within own range", func(t *testing.T) {
		us := schedule.UpdateSchedule{Date: "2024-03-01", StartTime: "09:30", EndTime: "10:30"}
		require.NoError(t, us.Validate(v))
		got, err := svc.Update(ctx, school, s.ID, us)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), got.StartTime)
	})

	t.Run("shift onto another booking", func(t *testing.T) {
		us := schedule.UpdateSchedule{Date: "2024-03-01", StartTime: "10:30", EndTime: "11:30"}
		require.NoError(t, us.Validate(v))
		_, err := svc.Update(ctx, school, s.ID, us)
		assert.Equal(t, schedule.ErrOverlap, err)
	})

	t.Run("date without times", func(t *testing.T) {
		us := schedule.UpdateSchedule{Date: "2024-03-01"}
		var verr *core.ValidationError
		assert.ErrorAs(t, us.Validate(v), &verr)
	})

	t.Run("complete by hand", func(t *testing.T) {
		us := schedule.UpdateSchedule{Status: "completed"}
		require.NoError(t, us.Validate(v))
		_, err := svc.Update(ctx, school, other.ID, us)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "status", verr.Fields[0].Field)

		got, err := svc.Get(ctx, school, other.ID)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusActive, got.Status)
	})

	t.Run("cancel then modify", func(t *testing.T) {
		us := schedule.UpdateSchedule{Status: "Cancelled"}
		require.NoError(t, us.Validate(v))
		got, err := svc.Update(ctx, school, other.ID, us)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusCancelled, got.Status)

		us = schedule.UpdateSchedule{Status: "active"}
		require.NoError(t, us.Validate(v))
		_, err = svc.Update(ctx, school, other.ID, us)
		assert.Equal(t, schedule.ErrImmutable, err)
	})

	t.Run("cancelled slot is free again", func(t *testing.T) {
		_, err := svc.Create(ctx, school, newSchedule(t, "t1", "2024-03-01", "11:00", "12:00"))
		assert.NoError(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.Update(ctx, school, "nope", schedule.UpdateSchedule{})
		assert.Equal(t, schedule.ErrNotFound, err)
	})
}

func TestService_Cleanup(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewScheduleRepository(inmemdb.Open())
	svc := newService(repo)
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	rows := []schedule.Schedule{
		{TeacherID: "a", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: schedule.StatusActive},
		{TeacherID: "b", StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), Status: schedule.StatusActive},
		{TeacherID: "c", StartTime: now.Add(-31*day - time.Hour), EndTime: now.Add(-31 * day), Status: schedule.StatusCompleted},
		{TeacherID: "d", StartTime: now.Add(-29*day - time.Hour), EndTime: now.Add(-29 * day), Status: schedule.StatusCompleted},
		{TeacherID: "e", StartTime: now.Add(-31*day - time.Hour), EndTime: now.Add(-31 * day), Status: schedule.StatusCancelled},
	}
	ids := make([]string, len(rows))
	for i, s := range rows {
		s.SchoolID = school.SchoolID
		saved, err := repo.CreateSchedule(ctx, s)
		require.NoError(t, err)
		ids[i] = saved.ID
	}

	res, err := svc.Cleanup(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, schedule.CleanupResult{Completed: 1, Deleted: 1}, res)

	got, err := svc.Get(ctx, school, ids[0])
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCompleted, got.Status)

	_, err = svc.Get(ctx, school, ids[2])
	assert.Equal(t, schedule.ErrNotFound, err)
	for _, id := range []string{ids[1], ids[3], ids[4]} {
		_, err = svc.Get(ctx, school, id)
		assert.NoError(t, err)
	}

	err = svc.Delete(ctx, school, ids[0])
	assert.Equal(t, schedule.ErrUndeletable, err)

	res, err = svc.Cleanup(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, schedule.CleanupResult{}, res, "a second run changes nothing")
}
