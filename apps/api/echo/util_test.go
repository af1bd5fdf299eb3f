package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/apps/api/di"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/services/imagestore"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
)

const testPassword = "Sup3r!Secret"

type (
	testApp struct {
		server *Server
		repos  database.Repositories
		svcs   *di.Services
		authn  *Authenticator
		images *imagestore.Store
		logs   *bytes.Buffer
	}

	// fixtures is a school with one class, one subject, one teacher attending the class and 3 students in it.
	fixtures struct {
		school   school.School
		class    class.Class
		subject  subject.Subject
		teacher  teacher.Teacher
		students []student.Student
	}

	httpTest struct {
		name     string
		method   string
		path     string
		body     []byte
		token    string
		wantCode int
		wantData []byte
	}

	errResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
)

var errMissingToken = errResponse{Message: "missing or malformed jwt"}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Uploads.Dir = t.TempDir()

	var logs bytes.Buffer
	logger := logsvc.NewRollbarLogger(log.New(&logs, "", 0), conf)

	images, err := imagestore.New(conf.Uploads)
	require.NoError(t, err)

	repos := inmemdb.Open().Repositories()
	svcs := di.NewServices(repos, di.Options{Retention: conf.Cleanup})
	validate, translator := di.NewValidator()

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Services:       svcs,
		Images:         images,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{server: srv, repos: repos, svcs: svcs, authn: NewAuthenticator(conf), images: images, logs: &logs}
}

func (app *testApp) seed(t *testing.T) fixtures {
	t.Helper()
	ctx := context.Background()
	var (
		fx  fixtures
		err error
	)

	fx.school, err = app.svcs.Schools.Register(ctx, school.NewSchool{
		SchoolName: "Lycee Wima",
		Email:      "wima@test.cd",
		OwnerName:  "Owner",
		Password:   testPassword,
	}, "")
	require.NoError(t, err)
	sp := fx.school.Principal()

	num := 5
	fx.class, err = app.svcs.Classes.Create(ctx, sp, class.NewClass{ClassText: "Grade 5", ClassNum: &num})
	require.NoError(t, err)

	fx.subject, err = app.svcs.Subjects.Create(ctx, sp, subject.NewSubject{SubjectName: "Maths", SubjectCode: "MTH"})
	require.NoError(t, err)

	fx.teacher, err = app.svcs.Teachers.Register(ctx, sp, teacher.NewTeacher{
		Name:           "Teacher",
		Email:          "teacher@test.cd",
		Qualification:  "MSc",
		Age:            35,
		Gender:         "female",
		Subjects:       []string{fx.subject.ID},
		TeacherClasses: []string{fx.class.ID},
		Password:       testPassword,
	}, "")
	require.NoError(t, err)

	fx.class, err = app.svcs.Classes.Update(ctx, sp, fx.class.ID, class.UpdateClass{Attendee: &fx.teacher.ID})
	require.NoError(t, err)

	for _, name := range []string{"Ada", "Bola", "Chidi"} {
		s, err := app.svcs.Students.Register(ctx, sp, student.NewStudent{
			Name:         name,
			Email:        name + "@test.cd",
			StudentClass: fx.class.ID,
			Age:          12,
			Gender:       "male",
			Parent:       "Parent",
			ParentNum:    "+243000000",
			Password:     testPassword,
		}, "")
		require.NoError(t, err)
		fx.students = append(fx.students, s)
	}
	return fx
}

func (app *testApp) token(t *testing.T, p auth.Principal) string {
	t.Helper()
	token, err := app.authn.GenerateToken(p)
	require.NoError(t, err)
	return token
}

func (app *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	rec := app.serve(req)
	if tt.wantCode != 0 {
		assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	}
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
	return rec
}

func newAuthRequest(method, path, token string, body []byte) *http.Request {
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// newMultipartRequest builds a form request, with an `image` file when `img` is not nil.
func newMultipartRequest(t *testing.T, method, path, token string, fields map[string]string, imgName string, img io.Reader) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if img != nil {
		part, err := w.CreateFormFile(imageField, imgName)
		require.NoError(t, err)
		_, err = io.Copy(part, img)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func marshal(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func success(t *testing.T, msg string, data interface{}) []byte {
	return marshal(t, Response{Success: true, Message: msg, Data: data})
}

// decode unmarshals the `data` of a success response into `v`.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
