package subscriptions

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"courses-backend/access"
	"courses-backend/models"
	"courses-backend/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	subscriptionID = "9e8d7c6b-5a49-4382-a1b0-c9d8e7f6a5b4"
	courseID       = "8a1c3e1e-4a57-4a4e-9a7c-0d2f6a1b2c3d"
	userID         = "5f0d2b9a-1c3e-4f5a-8b7c-9d0e1f2a3b4c"
	otherID        = "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
	modID          = "c0ffee00-0000-4000-8000-000000000001"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func newRouter(actorID string, role models.Role) *gin.Engine {
	h := New(access.NewEngine(nil))
	r := testutils.SetupTestRouter()
	r.Use(testutils.WithActor(actorID, role))
	r.POST("/subscriptions", h.CreateSubscription)
	r.GET("/subscriptions", h.ListSubscriptions)
	r.GET("/subscriptions/:id", h.GetSubscription)
	r.PATCH("/subscriptions/:id", h.UpdateSubscription)
	r.DELETE("/subscriptions/:id", h.DeleteSubscription)
	return r
}

func subscriptionRows(subscribed bool) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "user_id", "course_id", "is_subscribed", "created_at", "updated_at"}).
		AddRow(subscriptionID, userID, courseID, subscribed, now, now)
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

func TestCreateSubscription_Success(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" WHERE id = \$1`).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE user_id = \$1 AND course_id = \$2`).
		WithArgs(userID, courseID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+) RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(subscriptionID))
	mock.ExpectCommit()

	r := newRouter(userID, models.StudentRole)
	resp := doJSON(r, http.MethodPost, "/subscriptions", map[string]interface{}{
		"course":        courseID,
		"is_subscribed": true,
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var subscription models.Subscription
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &subscription))
	assert.Equal(t, userID, subscription.UserID)
	assert.True(t, subscription.IsSubscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscription_Duplicate(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE user_id = \$1 AND course_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	r := newRouter(userID, models.StudentRole)
	resp := doJSON(r, http.MethodPost, "/subscriptions", map[string]interface{}{"course": courseID})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"Already subscribed to this course","field":"course"}`, resp.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubscription_UnknownCourse(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	r := newRouter(userID, models.StudentRole)
	resp := doJSON(r, http.MethodPost, "/subscriptions", map[string]interface{}{"course": courseID})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubscriptions_Scoped(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE user_id = \$1 ORDER BY created_at DESC LIMIT`).
		WillReturnRows(subscriptionRows(true))

	resp := doJSON(newRouter(userID, models.StudentRole), http.MethodGet, "/subscriptions", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var page struct {
		Count   int64                 `json:"count"`
		Results []models.Subscription `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Count)
	assert.Len(t, page.Results, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubscriptions_ModeratorSeesAll(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" ORDER BY created_at DESC LIMIT`).
		WillReturnRows(subscriptionRows(true))

	resp := doJSON(newRouter(modID, models.ModeratorRole), http.MethodGet, "/subscriptions", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSubscription(t *testing.T) {
	t.Run("subscriber toggles off", func(t *testing.T) {
		_, mock, cleanup := testutils.SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id = \$1`).WillReturnRows(subscriptionRows(true))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "subscriptions" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp := doJSON(newRouter(userID, models.StudentRole), http.MethodPatch, "/subscriptions/"+subscriptionID, map[string]bool{"is_subscribed": false})

		assert.Equal(t, http.StatusOK, resp.Code)
		var subscription models.Subscription
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &subscription))
		assert.False(t, subscription.IsSubscribed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("moderator cannot modify", func(t *testing.T) {
		_, mock, cleanup := testutils.SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id = \$1`).WillReturnRows(subscriptionRows(true))

		resp := doJSON(newRouter(modID, models.ModeratorRole), http.MethodPatch, "/subscriptions/"+subscriptionID, map[string]bool{"is_subscribed": false})

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.JSONEq(t, `{"error":"You cannot modify another user's subscription"}`, resp.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("flag is required", func(t *testing.T) {
		_, mock, cleanup := testutils.SetupTestDB(t)
		defer cleanup()

		resp := doJSON(newRouter(userID, models.StudentRole), http.MethodPatch, "/subscriptions/"+subscriptionID, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteSubscription(t *testing.T) {
	t.Run("own row", func(t *testing.T) {
		_, mock, cleanup := testutils.SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id = \$1`).WillReturnRows(subscriptionRows(true))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "subscriptions" WHERE "subscriptions"."id" = \$1`).
			WithArgs(subscriptionID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp := doJSON(newRouter(userID, models.StudentRole), http.MethodDelete, "/subscriptions/"+subscriptionID, nil)
		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other user denied", func(t *testing.T) {
		_, mock, cleanup := testutils.SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id = \$1`).WillReturnRows(subscriptionRows(true))

		resp := doJSON(newRouter(otherID, models.StudentRole), http.MethodDelete, "/subscriptions/"+subscriptionID, nil)
		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
