package courses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"courses-backend/access"
	"courses-backend/models"
	"courses-backend/notifications"
	"courses-backend/testutils"
	"courses-backend/validators"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	courseID  = "8a1c3e1e-4a57-4a4e-9a7c-0d2f6a1b2c3d"
	ownerID   = "5f0d2b9a-1c3e-4f5a-8b7c-9d0e1f2a3b4c"
	strangeID = "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
	modID     = "c0ffee00-0000-4000-8000-000000000001"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

type recordingEnqueuer struct {
	tasks []notifications.Task
	err   error
}

func (r *recordingEnqueuer) Enqueue(ctx context.Context, task notifications.Task) error {
	if r.err != nil {
		return r.err
	}
	r.tasks = append(r.tasks, task)
	return nil
}

type fakeUploader struct {
	url string
}

func (f *fakeUploader) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	return f.url, nil
}

func newHandler(tasks notifications.Enqueuer) *Handler {
	h := New(access.NewEngine(access.GormLessonStore{}), validators.NewLinksValidator(), tasks, &fakeUploader{url: "https://res.cloudinary.com/demo/image/upload/preview.png"})
	h.now = func() time.Time { return fixedNow }
	return h
}

func newRouter(h *Handler, userID string, role models.Role) *gin.Engine {
	r := testutils.SetupTestRouter()
	r.Use(testutils.WithActor(userID, role))
	r.POST("/courses", h.CreateCourse)
	r.GET("/courses", h.ListCourses)
	r.GET("/courses/:id", h.GetCourse)
	r.PATCH("/courses/:id", h.UpdateCourse)
	r.DELETE("/courses/:id", h.DeleteCourse)
	r.POST("/courses/:id/preview", h.UploadPreview)
	return r
}

func courseRows(owner string, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "preview", "owner_id", "cost", "created_at", "updated_at"}).
		AddRow(courseID, "Physics 101", "Intro", nil, owner, "49.90", updatedAt.Add(-time.Hour), updatedAt)
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		buf = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestCreateCourse_StampsOwner(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "courses" (.+) RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseID))
	mock.ExpectCommit()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodPost, "/courses", map[string]interface{}{
		"name":        "Physics 101",
		"description": "Watch https://youtube.com/watch?v=1",
		"cost":        "49.90",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var course models.Course
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &course))
	assert.Equal(t, courseID, course.ID)
	require.NotNil(t, course.OwnerID)
	assert.Equal(t, ownerID, *course.OwnerID)
	assert.Equal(t, "49.9", course.Cost.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCourse_ModeratorDenied(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := newRouter(newHandler(&recordingEnqueuer{}), modID, models.ModeratorRole)
	resp := doJSON(r, http.MethodPost, "/courses", map[string]string{"name": "Physics 101"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "Moderators cannot create courses", decodeError(t, resp)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCourse_Validation(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)

	t.Run("forbidden link", func(t *testing.T) {
		resp := doJSON(r, http.MethodPost, "/courses", map[string]string{
			"name":        "Physics 101",
			"description": "visit http://evil.com",
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		body := decodeError(t, resp)
		assert.Equal(t, "Forbidden link", body["error"])
		assert.Equal(t, "description", body["field"])
	})

	t.Run("missing name", func(t *testing.T) {
		resp := doJSON(r, http.MethodPost, "/courses", map[string]string{"description": "x"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("negative cost", func(t *testing.T) {
		resp := doJSON(r, http.MethodPost, "/courses", map[string]string{"name": "x", "cost": "-1"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "cost", decodeError(t, resp)["field"])
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCourses_ScopedToOwner(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" WHERE owner_id = \$1`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE owner_id = \$1 ORDER BY created_at DESC LIMIT`).
		WillReturnRows(courseRows(ownerID, fixedNow))
	mock.ExpectQuery(`SELECT course_id, count\(\*\) AS total FROM "lessons" WHERE course_id IN \(\$1\) GROUP BY`).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "total"}).AddRow(courseID, 3))

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodGet, "/courses", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var page struct {
		Count    int64           `json:"count"`
		Next     *string         `json:"next"`
		Previous *string         `json:"previous"`
		Results  []models.Course `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Count)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
	require.Len(t, page.Results, 1)
	require.NotNil(t, page.Results[0].LessonsCount)
	assert.Equal(t, int64(3), *page.Results[0].LessonsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCourses_ModeratorSeesAll(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))
	mock.ExpectQuery(`SELECT \* FROM "courses" ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 20).
		WillReturnRows(courseRows(ownerID, fixedNow))
	mock.ExpectQuery(`SELECT course_id, count\(\*\) AS total FROM "lessons"`).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "total"}))

	r := newRouter(newHandler(&recordingEnqueuer{}), modID, models.ModeratorRole)
	resp := doJSON(r, http.MethodGet, "/courses?page=2", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var page map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, float64(45), page["count"])
	assert.Equal(t, "/courses?page=3", page["next"])
	assert.Equal(t, "/courses", page["previous"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCourses_InvalidPage(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	for _, query := range []string{"?page=0", "?page=abc", "?per_page=-5"} {
		resp := doJSON(r, http.MethodGet, "/courses"+query, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code, query)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCourse_NotVisible(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1 AND owner_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := newRouter(newHandler(&recordingEnqueuer{}), strangeID, models.StudentRole)
	resp := doJSON(r, http.MethodGet, "/courses/"+courseID, nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Course not found", decodeError(t, resp)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCourse_WithLessons(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1`).
		WillReturnRows(courseRows(ownerID, fixedNow))
	mock.ExpectQuery(`SELECT \* FROM "lessons" WHERE course_id = \$1 ORDER BY created_at ASC`).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "name"}).
			AddRow("l1", courseID, "Newton").
			AddRow("l2", courseID, "Kepler"))

	r := newRouter(newHandler(&recordingEnqueuer{}), modID, models.ModeratorRole)
	resp := doJSON(r, http.MethodGet, "/courses/"+courseID, nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Equal(t, float64(2), detail["lessons_count"])
	assert.Len(t, detail["lessons"], 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCourse_InvalidID(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodGet, "/courses/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectCourseUpdate(mock sqlmock.Sqlmock, owner string, updatedAt time.Time) {
	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1`).
		WillReturnRows(courseRows(owner, updatedAt))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "courses" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestUpdateCourse_DebouncesBurst(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	tasks := &recordingEnqueuer{}
	r := newRouter(newHandler(tasks), ownerID, models.StudentRole)

	// last real change two minutes ago: notify
	expectCourseUpdate(mock, ownerID, fixedNow.Add(-2*time.Minute))
	resp := doJSON(r, http.MethodPatch, "/courses/"+courseID, map[string]string{"name": "Physics 102"})
	require.Equal(t, http.StatusOK, resp.Code)

	// second save of the same burst: suppressed
	expectCourseUpdate(mock, ownerID, fixedNow.Add(-10*time.Second))
	resp = doJSON(r, http.MethodPatch, "/courses/"+courseID, map[string]string{"description": "Waves"})
	require.Equal(t, http.StatusOK, resp.Code)

	require.Len(t, tasks.tasks, 1)
	assert.Equal(t, notifications.KindCourse, tasks.tasks[0].Kind)
	assert.Equal(t, courseID, tasks.tasks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCourse_EnqueueFailureStillSucceeds(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectCourseUpdate(mock, ownerID, fixedNow.Add(-time.Hour))

	r := newRouter(newHandler(&recordingEnqueuer{err: errors.New("redis down")}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodPatch, "/courses/"+courseID, map[string]string{"name": "Physics 102"})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCourse_ModeratorAllowed(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectCourseUpdate(mock, ownerID, fixedNow.Add(-time.Hour))

	r := newRouter(newHandler(&recordingEnqueuer{}), modID, models.ModeratorRole)
	resp := doJSON(r, http.MethodPatch, "/courses/"+courseID, map[string]string{"name": "Moderated"})

	assert.Equal(t, http.StatusOK, resp.Code)
	var course models.Course
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &course))
	assert.Equal(t, "Moderated", course.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCourse_NotOwner(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1`).
		WillReturnRows(courseRows(ownerID, fixedNow))

	tasks := &recordingEnqueuer{}
	r := newRouter(newHandler(tasks), strangeID, models.StudentRole)
	resp := doJSON(r, http.MethodPatch, "/courses/"+courseID, map[string]string{"name": "Hijacked"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "You are not the owner of this course", decodeError(t, resp)["error"])
	assert.Empty(t, tasks.tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCourse_ForbiddenLinkBeforeLookup(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodPatch, "/courses/"+courseID, map[string]string{"description": "buy at shop.example.net"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCourse_ModeratorDenied(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1`).
		WillReturnRows(courseRows(ownerID, fixedNow))

	r := newRouter(newHandler(&recordingEnqueuer{}), modID, models.ModeratorRole)
	resp := doJSON(r, http.MethodDelete, "/courses/"+courseID, nil)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "Moderators cannot delete courses", decodeError(t, resp)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCourse_Cascades(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1`).
		WillReturnRows(courseRows(ownerID, fixedNow))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "course_id"=\$1(.+)WHERE course_id = `).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "payments" SET "lesson_id"=\$1(.+)WHERE lesson_id IN \(SELECT "id" FROM "lessons" WHERE course_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "subscriptions" WHERE course_id = \$1`).
		WithArgs(courseID).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM "lessons" WHERE course_id = \$1`).
		WithArgs(courseID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "courses" WHERE "courses"."id" = \$1`).
		WithArgs(courseID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodDelete, "/courses/"+courseID, nil)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCourse_RollsBackOnError(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "courses" WHERE id = \$1`).
		WillReturnRows(courseRows(ownerID, fixedNow))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "course_id"`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	resp := doJSON(r, http.MethodDelete, "/courses/"+courseID, nil)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Internal server error", decodeError(t, resp)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPreview(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectCourseUpdate(mock, ownerID, fixedNow.Add(-time.Hour))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("preview", "cover.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake image"))
	require.NoError(t, writer.Close())

	tasks := &recordingEnqueuer{}
	r := newRouter(newHandler(tasks), ownerID, models.StudentRole)
	req, _ := http.NewRequest(http.MethodPost, "/courses/"+courseID+"/preview", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	var course models.Course
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &course))
	require.NotNil(t, course.Preview)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/preview.png", *course.Preview)
	assert.Len(t, tasks.tasks, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPreview_RejectsNonImage(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("preview", "notes.txt")
	_, _ = part.Write([]byte("hello"))
	require.NoError(t, writer.Close())

	r := newRouter(newHandler(&recordingEnqueuer{}), ownerID, models.StudentRole)
	req, _ := http.NewRequest(http.MethodPost, "/courses/"+courseID+"/preview", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
