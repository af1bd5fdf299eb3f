package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/notice"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
)

func pngImage(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestAuthentication(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)

	tests := []httpTest{
		{name: "Auth required", path: "/api/class/all", wantCode: http.StatusUnauthorized, wantData: marshal(t, errMissingToken)},
		{
			name: "Invalid token", path: "/api/class/all", token: "not-a-jwt", wantCode: http.StatusUnauthorized,
			wantData: marshal(t, errResponse{Message: "invalid or expired jwt"}),
		},
		{
			name: "Wrong password", method: http.MethodPost, path: "/api/school/login",
			body:     marshal(t, LoginRequest{Email: fx.school.Email, Password: "nope"}),
			wantCode: http.StatusUnauthorized, wantData: marshal(t, errResponse{Message: "invalid email or password"}),
		},
		{
			name: "Unknown email", method: http.MethodPost, path: "/api/teacher/login",
			body:     marshal(t, LoginRequest{Email: "ghost@test.cd", Password: testPassword}),
			wantCode: http.StatusUnauthorized, wantData: marshal(t, errResponse{Message: "invalid email or password"}),
		},
		{
			name: "Email required", method: http.MethodPost, path: "/api/student/login",
			body:     marshal(t, LoginRequest{Password: testPassword}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	logins := []struct {
		path  string
		email string
		role  auth.Role
		id    string
	}{
		{"/api/school/login", "WIMA@test.cd", auth.RoleSchool, fx.school.ID},
		{"/api/teacher/login", fx.teacher.Email, auth.RoleTeacher, fx.teacher.ID},
		{"/api/student/login", fx.students[0].Email, auth.RoleStudent, fx.students[0].ID},
	}
	for _, l := range logins {
		t.Run("Login "+l.role.String(), func(t *testing.T) {
			rec := app.run(t, httpTest{
				method: http.MethodPost, path: l.path,
				body:     marshal(t, LoginRequest{Email: l.email, Password: testPassword}),
				wantCode: http.StatusOK,
			})
			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, "Success Login.", resp.Message)
			assert.Equal(t, l.role, resp.User.Role)
			assert.Equal(t, l.id, resp.User.ID)
			assert.Equal(t, fx.school.ID, resp.User.SchoolID)
			assert.Equal(t, resp.Token, rec.Header().Get(echo.HeaderAuthorization))

			// the token opens the authed endpoints
			app.run(t, httpTest{path: "/api/notice/all", token: resp.Token, wantCode: http.StatusOK})
		})
	}
}

func TestSchoolAPI(t *testing.T) {
	app := setup(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	fields := map[string]string{
		"schoolName": "Institut Mwilu",
		"email":      "mwilu@test.cd",
		"ownerName":  "Mwilu",
		"password":   testPassword,
	}

	t.Run("Image required", func(t *testing.T) {
		rec := app.serve(newMultipartRequest(t, http.MethodPost, "/api/school/register", "", fields, "", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"image is required","errors":{"image":"image is required"}}`, rec.Body.String())
	})

	t.Run("Not an image", func(t *testing.T) {
		rec := app.serve(newMultipartRequest(t, http.MethodPost, "/api/school/register", "", fields, "logo.png", bytes.NewBufferString("plain text")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		_, err := os.Stat(filepath.Join(app.images.Dir(), "school", "logo_"+"1709280000000.png"))
		assert.True(t, os.IsNotExist(err))
	})

	var registered school.School
	t.Run("Register", func(t *testing.T) {
		rec := app.serve(newMultipartRequest(t, http.MethodPost, "/api/school/register", "", fields, "my logo.png", pngImage(t)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &registered)
		assert.Equal(t, "mwilu@test.cd", registered.Email)
		assert.Equal(t, "my_logo_1709280000000.png", registered.SchoolImg)
		_, err := os.Stat(filepath.Join(app.images.Dir(), "school", registered.SchoolImg))
		assert.NoError(t, err)

		// served statically
		rec = app.serve(newAuthRequest(http.MethodGet, "/api/uploads/school/"+registered.SchoolImg, "", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		rec := app.serve(newMultipartRequest(t, http.MethodPost, "/api/school/register", "", fields, "logo.png", pngImage(t)))
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})

	t.Run("Update replaces the image", func(t *testing.T) {
		now = now.Add(time.Minute)
		token := app.token(t, registered.Principal())
		rec := app.serve(newMultipartRequest(t, http.MethodPut, "/api/school/update", token,
			map[string]string{"ownerName": "New Owner"}, "logo.png", pngImage(t)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated school.School
		decode(t, rec, &updated)
		assert.Equal(t, "New Owner", updated.OwnerName)
		assert.Equal(t, "Institut Mwilu", updated.SchoolName)
		assert.Equal(t, "logo_1709280060000.png", updated.SchoolImg)

		_, err := os.Stat(filepath.Join(app.images.Dir(), "school", registered.SchoolImg))
		assert.True(t, os.IsNotExist(err), "old image removed")
		_, err = os.Stat(filepath.Join(app.images.Dir(), "school", updated.SchoolImg))
		assert.NoError(t, err)
	})

	t.Run("List is public", func(t *testing.T) {
		var schools []map[string]interface{}
		rec := app.run(t, httpTest{path: "/api/school/all", wantCode: http.StatusOK})
		decode(t, rec, &schools)
		require.Len(t, schools, 1)
		assert.NotContains(t, schools[0], "password")
		assert.NotContains(t, schools[0], "passwordHash")
	})
}

func TestClassAPI(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)
	schoolToken := app.token(t, fx.school.Principal())
	studentToken := app.token(t, fx.students[0].Principal())

	t.Run("Students cannot create", func(t *testing.T) {
		app.run(t, httpTest{
			method: http.MethodPost, path: "/api/class/create", token: studentToken,
			body:     []byte(`{"classText":"Grade 6","classNum":6}`),
			wantCode: http.StatusForbidden, wantData: marshal(t, errResponse{Message: "permission denied"}),
		})
		classes, err := app.repos.Classes.ListClasses(context.Background(), fx.school.ID)
		require.NoError(t, err)
		assert.Len(t, classes, 1)
	})

	t.Run("Round trip", func(t *testing.T) {
		for _, num := range []int{0, 6} {
			rec := app.run(t, httpTest{
				method: http.MethodPost, path: "/api/class/create", token: schoolToken,
				body:     marshal(t, map[string]interface{}{"classText": "Grade 6 B", "classNum": num}),
				wantCode: http.StatusCreated,
			})
			var created class.Class
			decode(t, rec, &created)

			rec = app.run(t, httpTest{path: "/api/class/fetch/" + created.ID, token: schoolToken, wantCode: http.StatusOK})
			var fetched class.Class
			decode(t, rec, &fetched)
			assert.Equal(t, "Grade 6 B", fetched.ClassText)
			assert.Equal(t, num, fetched.ClassNum)
		}
	})

	t.Run("ClassNum required", func(t *testing.T) {
		app.run(t, httpTest{
			method: http.MethodPost, path: "/api/class/create", token: schoolToken,
			body: []byte(`{"classText":"Grade 7"}`), wantCode: http.StatusBadRequest,
		})
	})

	t.Run("Students see their own class", func(t *testing.T) {
		var classes []class.Class
		decode(t, app.run(t, httpTest{path: "/api/class/all", token: studentToken, wantCode: http.StatusOK}), &classes)
		require.Len(t, classes, 1)
		assert.Equal(t, fx.class.ID, classes[0].ID)
	})

	t.Run("Teacher attendee classes", func(t *testing.T) {
		var classes []class.Class
		decode(t, app.run(t, httpTest{path: "/api/class/attendee", token: app.token(t, fx.teacher.Principal()), wantCode: http.StatusOK}), &classes)
		require.Len(t, classes, 1)
		assert.Equal(t, fx.class.ID, classes[0].ID)
	})

	t.Run("Unknown class", func(t *testing.T) {
		app.run(t, httpTest{path: "/api/class/fetch/nope", token: schoolToken, wantCode: http.StatusNotFound})
	})
}

func TestScheduleAPI(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)
	ctx := context.Background()
	schoolToken := app.token(t, fx.school.Principal())

	booking := func(start, end string) []byte {
		return marshal(t, map[string]string{
			"teacher":   fx.teacher.ID,
			"subject":   fx.subject.ID,
			"class":     fx.class.ID,
			"date":      "2030-01-10",
			"startTime": start,
			"endTime":   end,
		})
	}
	countSchedules := func() int {
		schedules, err := app.repos.Schedules.ListSchedulesByClass(ctx, fx.school.ID, fx.class.ID)
		require.NoError(t, err)
		return len(schedules)
	}

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/api/schedule/create", body: booking("10:00", "11:00"), wantCode: http.StatusUnauthorized},
		{
			name: "Students cannot book", method: http.MethodPost, path: "/api/schedule/create", body: booking("10:00", "11:00"),
			token: app.token(t, fx.students[0].Principal()), wantCode: http.StatusForbidden,
		},
		{name: "Book", method: http.MethodPost, path: "/api/schedule/create", body: booking("10:00", "11:00"), token: schoolToken, wantCode: http.StatusCreated},
		{
			name: "Overlap", method: http.MethodPost, path: "/api/schedule/create", body: booking("10:30", "11:30"), token: schoolToken,
			wantCode: http.StatusConflict, wantData: marshal(t, errResponse{Message: "teacher already booked in this time range"}),
		},
		{name: "Back to back", method: http.MethodPost, path: "/api/schedule/create", body: booking("11:00", "12:00"), token: schoolToken, wantCode: http.StatusCreated},
		{name: "End before start", method: http.MethodPost, path: "/api/schedule/create", body: booking("12:00", "11:00"), token: schoolToken, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
	assert.Equal(t, 2, countSchedules())

	t.Run("Teacher subjects", func(t *testing.T) {
		var subjects []map[string]interface{}
		decode(t, app.run(t, httpTest{path: "/api/schedule/teacher/subjects/" + fx.teacher.ID, token: schoolToken, wantCode: http.StatusOK}), &subjects)
		require.Len(t, subjects, 1)
		assert.Equal(t, fx.subject.ID, subjects[0]["id"])
	})

	t.Run("Completion is left to the cleanup job", func(t *testing.T) {
		var schedules []schedule.Schedule
		decode(t, app.run(t, httpTest{path: "/api/schedule/fetch-with-class/" + fx.class.ID, token: schoolToken, wantCode: http.StatusOK}), &schedules)
		require.Len(t, schedules, 2)

		for _, token := range []string{schoolToken, app.token(t, fx.teacher.Principal())} {
			app.run(t, httpTest{
				method: http.MethodPut, path: "/api/schedule/update/" + schedules[0].ID, token: token,
				body:     []byte(`{"status":"completed"}`),
				wantCode: http.StatusBadRequest,
				wantData: marshal(t, ErrorResponse{
					Message: "cannot change status from active to completed",
					Errors:  map[string]string{"status": "cannot change status from active to completed"},
				}),
			})
		}

		got, err := app.repos.Schedules.GetSchedule(ctx, fx.school.ID, schedules[0].ID)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusActive, got.Status)
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/schedule/delete/" + schedules[0].ID, token: schoolToken, wantCode: http.StatusOK})
	})

	t.Run("Completed schedules are immutable", func(t *testing.T) {
		end := time.Now().UTC().Add(-time.Hour)
		done, err := app.repos.Schedules.CreateSchedule(ctx, schedule.Schedule{
			SchoolID:  fx.school.ID,
			TeacherID: fx.teacher.ID,
			SubjectID: fx.subject.ID,
			ClassID:   fx.class.ID,
			StartTime: end.Add(-time.Hour),
			EndTime:   end,
			Status:    schedule.StatusActive,
			CreatedAt: end,
		})
		require.NoError(t, err)
		_, err = app.svcs.Schedules.Cleanup(ctx, time.Now())
		require.NoError(t, err)

		app.run(t, httpTest{
			method: http.MethodPut, path: "/api/schedule/update/" + done.ID, token: schoolToken,
			body:     []byte(`{"status":"active"}`),
			wantCode: http.StatusConflict, wantData: marshal(t, errResponse{Message: "schedule can no longer be modified"}),
		})
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/schedule/delete/" + done.ID, token: schoolToken, wantCode: http.StatusConflict})
		assert.Equal(t, 2, countSchedules())
	})

	t.Run("Cancelled schedules can be deleted", func(t *testing.T) {
		var schedules []schedule.Schedule
		decode(t, app.run(t, httpTest{path: "/api/schedule/fetch-with-class/" + fx.class.ID, token: schoolToken, wantCode: http.StatusOK}), &schedules)
		var id string
		for _, s := range schedules {
			if s.Status == schedule.StatusActive {
				id = s.ID
			}
		}
		require.NotEmpty(t, id)

		app.run(t, httpTest{
			method: http.MethodPut, path: "/api/schedule/update/" + id, token: schoolToken,
			body: []byte(`{"status":"cancelled"}`), wantCode: http.StatusOK,
		})
		app.run(t, httpTest{
			method: http.MethodPut, path: "/api/schedule/update/" + id, token: schoolToken,
			body: []byte(`{"startTime":"2030-01-10T13:00:00Z","endTime":"2030-01-10T14:00:00Z"}`), wantCode: http.StatusConflict,
		})
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/schedule/delete/" + id, token: schoolToken, wantCode: http.StatusOK})
		assert.Equal(t, 1, countSchedules())
	})

	t.Run("Frontend field names", func(t *testing.T) {
		app.run(t, httpTest{
			method: http.MethodPost, path: "/api/schedule/create", token: schoolToken, wantCode: http.StatusCreated,
			body: marshal(t, map[string]string{
				"teacher":       fx.teacher.ID,
				"subject":       fx.subject.ID,
				"selectedClass": fx.class.ID,
				"date":          "2030-01-11",
				"startTime":     "10:00",
				"endTime":       "11:00",
			}),
		})
		assert.Equal(t, 2, countSchedules())
	})
}

func TestScheduleCleanupAPI(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(end time.Time, status schedule.Status) {
		_, err := app.repos.Schedules.CreateSchedule(ctx, schedule.Schedule{
			SchoolID:  fx.school.ID,
			TeacherID: fx.teacher.ID,
			SubjectID: fx.subject.ID,
			ClassID:   fx.class.ID,
			StartTime: end.Add(-time.Hour),
			EndTime:   end,
			Status:    status,
			CreatedAt: now,
		})
		require.NoError(t, err)
	}
	insert(now.Add(-2*time.Hour), schedule.StatusActive)        // completed by the run
	insert(now.Add(-40*24*time.Hour), schedule.StatusCompleted) // purged
	insert(now.Add(-10*24*time.Hour), schedule.StatusCompleted) // kept
	insert(now.Add(24*time.Hour), schedule.StatusActive)        // untouched

	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/schedule/cleanup", token: app.token(t, fx.teacher.Principal()),
		wantCode: http.StatusForbidden,
	})
	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/schedule/cleanup", token: app.token(t, fx.school.Principal()),
		wantCode: http.StatusOK,
		wantData: success(t, "Schedules cleaned up", schedule.CleanupResult{Completed: 1, Deleted: 1}),
	})

	schedules, err := app.repos.Schedules.ListSchedulesByClass(ctx, fx.school.ID, fx.class.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 3)
	var active int
	for _, s := range schedules {
		if s.Status == schedule.StatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestAttendanceAPI(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)
	ctx := context.Background()
	teacherToken := app.token(t, fx.teacher.Principal())

	bulk := func(ids ...string) []byte {
		nb := attendance.NewBulkAttendance{Class: fx.class.ID, Date: "2024-03-01"}
		for _, id := range ids {
			nb.Records = append(nb.Records, attendance.Record{Student: id, Status: attendance.StatusPresent})
		}
		return marshal(t, nb)
	}
	ids := []string{fx.students[0].ID, fx.students[1].ID, fx.students[2].ID}
	countRecords := func() int {
		records, err := app.repos.Attendances.ListAttendanceByStudents(ctx, fx.school.ID, ids...)
		require.NoError(t, err)
		return len(records)
	}

	tests := []httpTest{
		{
			name: "Students cannot mark", method: http.MethodPost, path: "/api/attendance/mark-bulk", body: bulk(ids...),
			token: app.token(t, fx.students[0].Principal()), wantCode: http.StatusForbidden,
		},
		{
			name: "Outsider", method: http.MethodPost, path: "/api/attendance/mark-bulk", body: bulk(ids[0], "outsider"),
			token: teacherToken, wantCode: http.StatusBadRequest,
		},
		{
			name: "Duplicate student", method: http.MethodPost, path: "/api/attendance/mark-bulk", body: bulk(ids[0], ids[0]),
			token: teacherToken, wantCode: http.StatusBadRequest,
		},
		{name: "Not taken yet", path: "/api/attendance/check/" + fx.class.ID + "?date=2024-03-01", token: teacherToken, wantCode: http.StatusOK,
			wantData: success(t, "", map[string]bool{"attendanceTaken": false}),
		},
		{
			name: "Mark class", method: http.MethodPost, path: "/api/attendance/mark-bulk", body: bulk(ids...),
			token: teacherToken, wantCode: http.StatusCreated, wantData: success(t, "Attendance marked", attendance.BulkResult{Created: 3}),
		},
		{
			name: "Already taken", method: http.MethodPost, path: "/api/attendance/mark-bulk", body: bulk(ids...),
			token: teacherToken, wantCode: http.StatusConflict,
			wantData: marshal(t, errResponse{Message: "attendance already taken for this class today"}),
		},
		{name: "Taken", path: "/api/attendance/check/" + fx.class.ID + "?date=2024-03-01", token: teacherToken, wantCode: http.StatusOK,
			wantData: success(t, "", map[string]bool{"attendanceTaken": true}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
	assert.Equal(t, 3, countRecords())

	t.Run("Student history", func(t *testing.T) {
		var sa attendance.StudentAttendance
		decode(t, app.run(t, httpTest{path: "/api/attendance/" + ids[1], token: teacherToken, wantCode: http.StatusOK}), &sa)
		assert.Equal(t, attendance.Stats{Total: 1, Present: 1, Percentage: 100}, sa.Stats)
	})

	t.Run("Bulk history", func(t *testing.T) {
		var all []attendance.StudentAttendance
		decode(t, app.run(t, httpTest{
			method: http.MethodPost, path: "/api/attendance/bulk", token: teacherToken,
			body: marshal(t, attendance.StudentsRequest{StudentIDs: ids}), wantCode: http.StatusOK,
		}), &all)
		require.Len(t, all, 3)
		for i, sa := range all {
			assert.Equal(t, ids[i], sa.StudentID)
		}
	})

	t.Run("Frontend field names", func(t *testing.T) {
		data := make([]map[string]string, len(ids))
		for i, id := range ids {
			data[i] = map[string]string{"studentId": id, "status": "Absent", "notes": "strike"}
		}
		app.run(t, httpTest{
			method: http.MethodPost, path: "/api/attendance/mark-bulk", token: teacherToken,
			body:     marshal(t, map[string]interface{}{"classId": fx.class.ID, "date": "2024-03-02", "attendanceData": data}),
			wantCode: http.StatusCreated, wantData: success(t, "Attendance marked", attendance.BulkResult{Created: 3}),
		})
		assert.Equal(t, 6, countRecords())
	})
}

func TestExamAPI(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)
	teacherToken := app.token(t, fx.teacher.Principal())

	t.Run("Exam types", func(t *testing.T) {
		app.run(t, httpTest{
			path: "/api/examination/exam-types", token: teacherToken, wantCode: http.StatusOK,
			wantData: success(t, "", []exam.Type{exam.TypeQuiz, exam.TypeUnitTest, exam.TypePractical, exam.TypeAssignment}),
		})
	})

	t.Run("Calculate duration", func(t *testing.T) {
		app.run(t, httpTest{
			method: http.MethodPost, path: "/api/examination/calculate-duration", token: teacherToken,
			body: []byte(`{"startTime":"09:15","endTime":"11:00"}`), wantCode: http.StatusOK,
			wantData: success(t, "", map[string]int{"duration": 105}),
		})
	})

	create := func(typ exam.Type) httpTest {
		return httpTest{
			method: http.MethodPost, path: "/api/examination/create", token: teacherToken,
			body: marshal(t, map[string]interface{}{
				"class": fx.class.ID, "subject": fx.subject.ID, "examType": typ,
				"examDate": "2030-06-01", "startTime": "09:00", "duration": 90,
			}),
		}
	}
	t.Run("Teachers cannot schedule finals", func(t *testing.T) {
		tt := create(exam.TypeFinal)
		tt.wantCode = http.StatusBadRequest
		app.run(t, tt)
	})
	t.Run("Create", func(t *testing.T) {
		tt := create(exam.TypeQuiz)
		tt.wantCode = http.StatusCreated
		var e exam.Examination
		decode(t, app.run(t, tt), &e)
		assert.Equal(t, "10:30", e.EndTime)
		assert.Equal(t, 90, e.Duration)
	})

	t.Run("Students see their class exams", func(t *testing.T) {
		var exams []exam.Examination
		decode(t, app.run(t, httpTest{path: "/api/examination/all", token: app.token(t, fx.students[0].Principal()), wantCode: http.StatusOK}), &exams)
		assert.Len(t, exams, 1)
	})
}

func TestNoticeAPI(t *testing.T) {
	app := setup(t)
	fx := app.seed(t)
	schoolToken := app.token(t, fx.school.Principal())
	teacherToken := app.token(t, fx.teacher.Principal())
	studentToken := app.token(t, fx.students[0].Principal())

	post := func(token string, audience notice.Audience, important bool) httpTest {
		return httpTest{
			method: http.MethodPost, path: "/api/notice/create", token: token,
			body: marshal(t, notice.NewNotice{Title: "Notice for " + string(audience), Message: "Hello", Audience: audience, IsImportant: important}),
		}
	}
	for _, tt := range []httpTest{
		post(schoolToken, notice.AudienceAll, true),
		post(schoolToken, notice.AudienceTeacher, false),
		post(teacherToken, notice.AudienceStudent, false),
	} {
		tt.wantCode = http.StatusCreated
		app.run(t, tt)
	}

	t.Run("Teachers post for students only", func(t *testing.T) {
		tt := post(teacherToken, notice.AudienceAll, false)
		tt.wantCode = http.StatusForbidden
		app.run(t, tt)
	})

	t.Run("Students cannot post", func(t *testing.T) {
		tt := post(studentToken, notice.AudienceStudent, false)
		tt.wantCode = http.StatusForbidden
		app.run(t, tt)
	})

	visible := func(token, query string) []notice.Notice {
		var page notice.Page
		decode(t, app.run(t, httpTest{path: "/api/notice/all" + query, token: token, wantCode: http.StatusOK}), &page)
		return page.Notices
	}
	t.Run("Visibility", func(t *testing.T) {
		assert.Len(t, visible(schoolToken, ""), 3)
		assert.Len(t, visible(teacherToken, ""), 3) // Teacher, All & own
		assert.Len(t, visible(studentToken, ""), 2) // Student & All
		assert.Len(t, visible(studentToken, "?important=true"), 1)
		assert.Len(t, visible(schoolToken, "?audience=Teacher"), 1)
		assert.Len(t, visible(schoolToken, "?limit=2&page=2"), 1)
	})

	t.Run("Important", func(t *testing.T) {
		var notices []notice.Notice
		decode(t, app.run(t, httpTest{path: "/api/notice/important", token: studentToken, wantCode: http.StatusOK}), &notices)
		require.Len(t, notices, 1)
		assert.Equal(t, notice.AudienceAll, notices[0].Audience)
	})

	t.Run("Ownership", func(t *testing.T) {
		var mine, schools []notice.Notice
		for _, n := range visible(teacherToken, "") {
			if n.CreatedBy.ID == fx.teacher.ID {
				mine = append(mine, n)
			} else {
				schools = append(schools, n)
			}
		}
		require.Len(t, mine, 1)
		require.NotEmpty(t, schools)

		app.run(t, httpTest{
			method: http.MethodPut, path: "/api/notice/update/" + schools[0].ID, token: teacherToken,
			body: []byte(`{"title":"Hijacked"}`), wantCode: http.StatusForbidden,
		})
		app.run(t, httpTest{
			method: http.MethodPut, path: "/api/notice/update/" + mine[0].ID, token: teacherToken,
			body: []byte(`{"title":"Edited"}`), wantCode: http.StatusOK,
		})
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/notice/delete/" + mine[0].ID, token: schoolToken, wantCode: http.StatusOK})
		app.run(t, httpTest{path: "/api/notice/fetch/" + mine[0].ID, token: schoolToken, wantCode: http.StatusNotFound})
	})
}
