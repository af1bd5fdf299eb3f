package attendance_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/services/lock"
	"github.com/trezcool/darasa/storage/database/inmem"
)

// classBook is a single class "cls", attended by teacher "t1", with students s1..s3.
type classBook struct{}

func (classBook) Attendee(_ context.Context, _, classID string) (string, error) {
	if classID != "cls" {
		return "", core.NewNotFoundError("class")
	}
	return "t1", nil
}

func (classBook) StudentClassID(context.Context, string, string) (string, error) {
	return "cls", nil
}

func (classBook) ClassStudentIDs(_ context.Context, _, classID string) ([]string, error) {
	if classID != "cls" {
		return nil, nil
	}
	return []string{"s1", "s2", "s3"}, nil
}

var (
	school  = auth.Principal{ID: "sch", SchoolID: "sch", Role: auth.RoleSchool}
	teacher = auth.Principal{ID: "t1", SchoolID: "sch", Role: auth.RoleTeacher}
)

func newService() *attendance.Service {
	return attendance.NewService(inmemdb.NewAttendanceRepository(inmemdb.Open()), attendance.Options{
		Classes: classBook{},
		Roster:  classBook{},
		Locker:  locksvc.NewLocal(),
	})
}

func bulk(date string, ids ...string) attendance.NewBulkAttendance {
	nb := attendance.NewBulkAttendance{Class: "cls", Date: date}
	for i, id := range ids {
		st := attendance.StatusPresent
		if i%2 == 1 {
			st = attendance.StatusAbsent
		}
		nb.Records = append(nb.Records, attendance.Record{Student: id, Status: st})
	}
	return nb
}

func TestNewBulkAttendance_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want attendance.NewBulkAttendance
	}{
		{
			name: "canonical",
			body: `{"class":"cls","date":"2024-03-01","records":[{"student":"s1","status":"Present"}]}`,
			want: attendance.NewBulkAttendance{Class: "cls", Date: "2024-03-01", Records: []attendance.Record{{Student: "s1", Status: attendance.StatusPresent}}},
		},
		{
			name: "frontend names",
			body: `{"classId":"cls","date":"2024-03-01","attendanceData":[{"studentId":"s1","status":"Absent","notes":"sick"}]}`,
			want: attendance.NewBulkAttendance{Class: "cls", Date: "2024-03-01", Records: []attendance.Record{{Student: "s1", Status: attendance.StatusAbsent, Notes: "sick"}}},
		},
		{
			name: "canonical wins",
			body: `{"class":"cls","classId":"other","records":[{"student":"s1","studentId":"s2","status":"Present"}],"attendanceData":[]}`,
			want: attendance.NewBulkAttendance{Class: "cls", Records: []attendance.Record{{Student: "s1", Status: attendance.StatusPresent}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got attendance.NewBulkAttendance
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var one attendance.NewAttendance
	require.NoError(t, json.Unmarshal([]byte(`{"studentId":"s1","classId":"cls","status":"Present"}`), &one))
	assert.Equal(t, attendance.NewAttendance{Student: "s1", Class: "cls", Status: attendance.StatusPresent}, one)
}

func TestNewStats(t *testing.T) {
	assert.Equal(t, attendance.Stats{}, attendance.NewStats(nil))

	st := attendance.NewStats([]attendance.Attendance{
		{Status: attendance.StatusPresent},
		{Status: attendance.StatusPresent},
		{Status: attendance.StatusAbsent},
	})
	assert.Equal(t, attendance.Stats{Total: 3, Present: 2, Absent: 1, Percentage: 66.67}, st)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	got := attendance.Day(time.Date(2024, 3, 2, 0, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err := attendance.ParseDay("01/03/2024")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_Mark(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	mark := func(p auth.Principal, student, class string) error {
		_, err := svc.Mark(ctx, p, attendance.NewAttendance{Student: student, Class: class, Date: "2024-03-01", Status: attendance.StatusPresent})
		return err
	}

	require.NoError(t, mark(teacher, "s1", "cls"))
	assert.Equal(t, attendance.ErrAlreadyMarked, mark(teacher, "s1", "cls"))
	assert.NoError(t, mark(school, "s2", "cls"), "schools mark any class")

	outsider := mark(teacher, "s9", "cls")
	var verr *core.ValidationError
	assert.ErrorAs(t, outsider, &verr)

	other := auth.Principal{ID: "t2", SchoolID: "sch", Role: auth.RoleTeacher}
	assert.Equal(t, attendance.ErrNotAttendee, mark(other, "s3", "cls"))
	assert.Equal(t, attendance.ErrClassNotFound, mark(school, "s3", "nope"))
}

func TestService_MarkBulk(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.MarkBulk(ctx, teacher, bulk("2024-03-01", "s1", "s1"))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr, "duplicate students")

	res, err := svc.MarkBulk(ctx, teacher, bulk("2024-03-01", "s1", "s2", "s3"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)

	_, err = svc.MarkBulk(ctx, teacher, bulk("2024-03-01", "s1"))
	assert.Equal(t, attendance.ErrAlreadyTaken, err)

	taken, err := svc.Check(ctx, teacher, "cls", time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = svc.Check(ctx, teacher, "cls", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, taken)

	hist, err := svc.ListByStudent(ctx, school, "s2")
	require.NoError(t, err)
	assert.Equal(t, attendance.Stats{Total: 1, Absent: 1}, hist.Stats)

	_, err = svc.ListByStudent(ctx, auth.Principal{ID: "s2", SchoolID: "sch", Role: auth.RoleStudent}, "s2")
	assert.Equal(t, attendance.ErrStudentsHidden, err)
}

func TestService_MarkBulk_concurrent(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	const n = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		taken  int
		marked int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.MarkBulk(ctx, teacher, bulk("2024-03-01", "s1", "s2", "s3"))
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				ok++
				marked += res.Created
			case attendance.ErrAlreadyTaken:
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, taken)
	assert.Equal(t, 3, marked)

	all, err := svc.ListForStudents(ctx, school, []string{"s1", "s2", "s3"})
	require.NoError(t, err)
	for _, sa := range all {
		assert.Len(t, sa.Records, 1, sa.StudentID)
	}
}
