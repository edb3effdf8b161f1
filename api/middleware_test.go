package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/databases/mocks"
	"github.com/odontoforense/case-api/models"
)

func TestMiddleware(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Nome: "Ana", Role: models.RolePerito}
	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)

	tv := api.TokenVerifier{Secret: testSecret, TTL: time.Minute, DB: udb}
	token, err := tv.Issue(*user)
	require.NoError(t, err)

	var got models.Identity
	m := api.NewMiddleware(tv)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = api.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases/C1/messages", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cases/C1/messages", nil)
	req.Header.Set("Authorization", "Bearer asdfasdf")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cases/C1/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, models.Identity{UserID: user.ID.Hex(), Role: models.RolePerito, Name: "Ana"}, got)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=abc", nil)
	assert.Equal(t, "abc", api.BearerToken(req))

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "bearer xyz")
	assert.Equal(t, "xyz", api.BearerToken(req))

	req = httptest.NewRequest(http.MethodGet, "/ws?token=abc", nil)
	req.Header.Set("Authorization", "Bearer xyz")
	assert.Equal(t, "abc", api.BearerToken(req))

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, api.BearerToken(req))
}

func TestMetricsMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.HandleFunc("/cases/{caseId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cases/C1", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rr.Header().Get("X-Request-ID"))
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := api.TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestWithQueryTimeout(t *testing.T) {
	ctx, cancel := api.WithQueryTimeout(context.TODO())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(api.QueryTimeout), deadline, time.Second)

	_, found := api.IdentityFrom(ctx)
	assert.False(t, found)
	identity, found := api.IdentityFrom(api.WithIdentity(ctx, models.Identity{UserID: "u1"}))
	assert.True(t, found)
	assert.Equal(t, "u1", identity.UserID)
}
