package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/api/collab"
	"github.com/odontoforense/case-api/config"
	"github.com/odontoforense/case-api/databases/mocks"
	"github.com/odontoforense/case-api/models"
)

var a App

const testSecret = "test-secret"

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

// frameSink collects frames delivered to a registry member
type frameSink struct {
	mu     sync.Mutex
	frames []string
}

func (s *frameSink) Send(frame []byte) bool {
	s.mu.Lock()
	s.frames = append(s.frames, string(frame))
	s.mu.Unlock()
	return true
}

func (s *frameSink) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, f := range s.frames {
		var env collab.Envelope
		if err := json.Unmarshal([]byte(f), &env); err == nil {
			out = append(out, env.Event)
		}
	}
	return out
}

// testService builds a collaboration service over mocked collections
func testService(udb *mocks.UserDatabase, msgDB *mocks.MessageDatabase) *collab.Service {
	verifier := api.TokenVerifier{Secret: []byte(testSecret), TTL: time.Hour, DB: udb}
	store := collab.NewMessageStore(msgDB, udb)
	svc := collab.NewService(collab.NewRegistry(), store, verifier, nil)
	return svc
}

func testUser(role string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Nome: "Usuário " + role, Role: role}
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := api.TokenVerifier{Secret: []byte(testSecret), TTL: time.Hour}.Issue(*user)
	require.NoError(t, err)
	return token
}

func newTestApp(udb *mocks.UserDatabase, msgDB *mocks.MessageDatabase) App {
	app := App{
		Config: config.Config{JWTSecret: testSecret, TokenTTL: time.Hour, AllowedOrigin: "*"},
		Collab: testService(udb, msgDB),
		UserDB: udb,
	}
	app.Router = app.New()
	return app
}

func TestUnknownRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "collab_connections")
}

func TestApp_CaseRoutesUnauthorized(t *testing.T) {
	a.Router = a.New()

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/v1/cases/C1/messages"},
		{"PATCH", "/api/v1/cases/64b7f0c2a1b2c3d4e5f60718"},
		{"POST", "/api/v1/cases/64b7f0c2a1b2c3d4e5f60718/evidence"},
	} {
		req, _ := http.NewRequest(tc.method, tc.path, nil)
		response := executeRequest(req)
		checkResponseCode(t, http.StatusUnauthorized, response.Code)
	}
}

func TestApp_CaseRoutesInvalidToken(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/v1/cases/C1/messages", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)

	var m map[string]string
	json.Unmarshal(response.Body.Bytes(), &m)
	assert.Equal(t, "unauthorized", m["error"])
}

func TestApp_CaseMessagesRoute(t *testing.T) {
	user := testUser(models.RoleAssistente)
	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(user, nil)
	msgDB := &mocks.MessageDatabase{}
	msgDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Message{
		{ID: primitive.NewObjectID(), CaseID: "C1", SenderID: user.ID.Hex(), Content: "olá"},
	}, nil)

	app := newTestApp(udb, msgDB)
	req, _ := http.NewRequest("GET", "/api/v1/cases/C1/messages?limit=10", nil)
	req.Header.Add("Authorization", "Bearer "+tokenFor(t, user))
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	checkResponseCode(t, http.StatusOK, rr.Code)
	var views []models.MessageView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "olá", views[0].Content)
	assert.Equal(t, user.Nome, views[0].Sender.Nome)
	udb.AssertCalled(t, "FindOne", mock.Anything, bson.M{"_id": user.ID})
}

func TestApp_NewSharesUserDatabase(t *testing.T) {
	udb := &mocks.UserDatabase{}
	app := App{Config: config.Config{JWTSecret: testSecret}, UserDB: udb}
	app.Router = app.New()

	verifier, ok := app.Collab.Verifier.(api.TokenVerifier)
	require.True(t, ok)
	assert.Same(t, udb, verifier.DB)
	assert.Same(t, udb, app.UserDB)
}

func TestApp_Close(t *testing.T) {
	assert.NoError(t, (&App{}).Close(context.Background()))

	client := &mocks.ClientHelper{}
	client.On("Disconnect", mock.Anything).Return(nil).Once()
	client.On("Disconnect", mock.Anything).Return(errors.New("boom")).Once()

	app := App{client: client}
	assert.NoError(t, app.Close(context.Background()))
	assert.EqualError(t, app.Close(context.Background()), "boom")
	client.AssertNumberOfCalls(t, "Disconnect", 2)
}
