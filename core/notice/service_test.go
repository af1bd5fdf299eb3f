package notice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/apps/api/di"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/notice"
	"github.com/trezcool/darasa/storage/database/inmem"
)

var (
	school  = auth.Principal{ID: "sch", SchoolID: "sch", Role: auth.RoleSchool}
	teacher = auth.Principal{ID: "t1", SchoolID: "sch", Role: auth.RoleTeacher}
	student = auth.Principal{ID: "s1", SchoolID: "sch", Role: auth.RoleStudent}
)

func TestParseExpiry(t *testing.T) {
	got, err := notice.ParseExpiry("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC), *got)

	got, err = notice.ParseExpiry("2024-03-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), *got)

	got, err = notice.ParseExpiry("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = notice.ParseExpiry("tomorrow")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewNotice_Validate(t *testing.T) {
	validate, _ := di.NewValidator()

	past := notice.NewNotice{Title: "t", Message: "m", Audience: notice.AudienceAll, ExpiryDate: "2000-01-01"}
	var verr *core.ValidationError
	assert.ErrorAs(t, past.Validate(validate), &verr)

	bad := notice.NewNotice{Title: "t", Message: "m", Audience: "Parents"}
	assert.Error(t, bad.Validate(validate))

	ok := notice.NewNotice{Title: " t ", Message: "m", Audience: notice.AudienceAll}
	require.NoError(t, ok.Validate(validate))
	assert.Equal(t, "t", ok.Title)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	validate, _ := di.NewValidator()
	repo := inmemdb.NewNoticeRepository(inmemdb.Open())
	svc := notice.NewService(repo)

	post := func(p auth.Principal, title string, audience notice.Audience, important bool) (notice.Notice, error) {
		nn := notice.NewNotice{Title: title, Message: "message of " + title, Audience: audience, IsImportant: important}
		require.NoError(t, nn.Validate(validate))
		return svc.Create(ctx, p, nn)
	}

	_, err := post(school, "all", notice.AudienceAll, true)
	require.NoError(t, err)
	_, err = post(school, "staff", notice.AudienceTeacher, false)
	require.NoError(t, err)
	_, err = post(school, "pupils", notice.AudienceStudent, false)
	require.NoError(t, err)
	homework, err := post(teacher, "homework", notice.AudienceStudent, true)
	require.NoError(t, err)

	_, err = post(teacher, "meeting", notice.AudienceTeacher, false)
	assert.Equal(t, notice.ErrTeacherAudience, err)

	past := time.Now().UTC().Add(-time.Hour)
	expired, err := repo.CreateNotice(ctx, notice.Notice{
		SchoolID: "sch", Title: "old", Message: "old", Audience: notice.AudienceAll,
		ExpiryDate: &past, CreatedBy: school.Author(), CreatedAt: past,
	})
	require.NoError(t, err)

	t.Run("visibility", func(t *testing.T) {
		tests := []struct {
			p    auth.Principal
			want int
		}{
			{p: school, want: 5},
			{p: teacher, want: 3}, // all, staff, homework
			{p: student, want: 3}, // all, pupils, homework
		}
		for _, tt := range tests {
			t.Run(tt.p.Role.String(), func(t *testing.T) {
				page, err := svc.List(ctx, tt.p, notice.QueryFilter{})
				require.NoError(t, err)
				assert.Len(t, page.Notices, tt.want)
				assert.Equal(t, tt.want, page.Pagination.Total)
			})
		}

		_, err := svc.Get(ctx, student, expired.ID)
		assert.Equal(t, notice.ErrNotFound, err)
		_, err = svc.Get(ctx, school, expired.ID)
		assert.NoError(t, err)
	})

	t.Run("filters", func(t *testing.T) {
		page, err := svc.List(ctx, school, notice.QueryFilter{Search: "HOMEWORK"})
		require.NoError(t, err)
		require.Len(t, page.Notices, 1)
		assert.Equal(t, homework.ID, page.Notices[0].ID)

		page, err = svc.List(ctx, school, notice.QueryFilter{Audience: notice.AudienceStudent, Limit: 1, Page: 2})
		require.NoError(t, err)
		assert.Len(t, page.Notices, 1)
		assert.Equal(t, core.Pagination{Page: 2, Limit: 1, Total: 2, Pages: 2}, page.Pagination)

		_, err = svc.List(ctx, school, notice.QueryFilter{Audience: "Parents"})
		var verr *core.ValidationError
		assert.ErrorAs(t, err, &verr)

		important, err := svc.Important(ctx, student)
		require.NoError(t, err)
		assert.Len(t, important, 2)
	})

	t.Run("ownership", func(t *testing.T) {
		title := "homework due"
		got, err := svc.Update(ctx, teacher, homework.ID, notice.UpdateNotice{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
		assert.Equal(t, teacher.Author(), got.CreatedBy)

		all := notice.AudienceAll
		_, err = svc.Update(ctx, teacher, homework.ID, notice.UpdateNotice{Audience: &all})
		assert.Equal(t, notice.ErrTeacherAudience, err)

		_, err = svc.Update(ctx, teacher, expired.ID, notice.UpdateNotice{Title: &title})
		assert.Equal(t, notice.ErrNotAuthor, err)

		assert.Equal(t, notice.ErrNotAuthor, svc.Delete(ctx, student, homework.ID))
		assert.NoError(t, svc.Delete(ctx, school, homework.ID))
	})
}
