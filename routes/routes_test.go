package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"courses-backend/access"
	"courses-backend/handlers/courses"
	"courses-backend/handlers/lessons"
	"courses-backend/handlers/payments"
	"courses-backend/handlers/ping"
	"courses-backend/handlers/stripe"
	"courses-backend/handlers/subscriptions"
	"courses-backend/handlers/users"
	"courses-backend/notifications"
	"courses-backend/testutils"
	"courses-backend/utils"
	"courses-backend/validators"

	"github.com/stretchr/testify/assert"
)

var secret = []byte("routes-secret")

func TestMain(m *testing.M) {
	testutils.InitTestMain()
	os.Exit(m.Run())
}

func newTestRouter() http.Handler {
	engine := access.NewEngine(access.GormLessonStore{})
	links := validators.NewLinksValidator()
	queue := notifications.NewMemoryQueue(1, time.Millisecond)

	return SetupRouter(Handlers{
		Ping:          ping.New(),
		Courses:       courses.New(engine, links, queue, nil),
		Lessons:       lessons.New(engine, links, queue, nil),
		Payments:      payments.New(engine),
		Subscriptions: subscriptions.New(engine),
		Users:         users.New(engine),
		Stripe:        stripe.New(nil, stripe.Config{}),
	}, Options{JWTSecret: secret})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter()

	paths := []struct{ method, path string }{
		{http.MethodGet, "/courses"},
		{http.MethodPost, "/lessons"},
		{http.MethodGet, "/payments"},
		{http.MethodDelete, "/subscriptions/123e4567-e89b-12d3-a456-426614174000"},
		{http.MethodGet, "/users/me"},
		{http.MethodPost, "/checkout-sessions"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(p.method, p.path, nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// no webhook secret configured, the request reaches the handler without a token
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader("{}"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCheckoutReachesHandlerWithToken(t *testing.T) {
	router := newTestRouter()
	token, err := utils.GenerateJWT(utils.Identity{UserID: "123e4567-e89b-12d3-a456-426614174000", Role: "STUDENT"}, secret, time.Hour)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/checkout-sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	// empty body is rejected before the unconfigured gateway is checked
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
