package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/databases/mocks"
	"github.com/odontoforense/case-api/models"
)

func TestAuth_LoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3nha"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testUser(models.RolePerito)
	user.Email = "ana@odonto.local"
	user.Senha = string(hash)

	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"email": "ana@odonto.local"}).Return(user, nil)
	udb.On("FindOne", mock.Anything, bson.M{"email": "ghost@odonto.local"}).Return(nil, mongo.ErrNoDocuments)
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)

	verifier := api.TokenVerifier{Secret: []byte(testSecret), TTL: time.Hour, DB: udb}
	h := Auth{UDB: udb, Verifier: verifier}

	rr := httptest.NewRecorder()
	h.LoginHandler(rr, httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":" Ana@Odonto.local ","senha":"s3nha"}`)))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Empty(t, resp.User.Senha)
	assert.NotContains(t, rr.Body.String(), "senha")

	identity, err := verifier.Verify(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.Identity(), identity)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad body", `{`, http.StatusBadRequest},
		{"missing senha", `{"email":"ana@odonto.local"}`, http.StatusBadRequest},
		{"unknown user", `{"email":"ghost@odonto.local","senha":"x"}`, http.StatusUnauthorized},
		{"wrong senha", `{"email":"ana@odonto.local","senha":"errada"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.LoginHandler(rr, httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(tt.body)))
			checkResponseCode(t, tt.code, rr.Code)
		})
	}
}

func TestAuth_LoginHandlerWithoutSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3nha"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testUser(models.RoleAdmin)
	user.Senha = string(hash)

	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(user, nil)

	h := Auth{UDB: udb}
	rr := httptest.NewRecorder()
	h.LoginHandler(rr, httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"carla@odonto.local","senha":"s3nha"}`)))
	checkResponseCode(t, http.StatusInternalServerError, rr.Code)
}

func TestAuth_LoginHandlerDatabaseError(t *testing.T) {
	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	h := Auth{UDB: udb, Verifier: api.TokenVerifier{Secret: []byte(testSecret)}}
	rr := httptest.NewRecorder()
	h.LoginHandler(rr, httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","senha":"x"}`)))
	checkResponseCode(t, http.StatusUnauthorized, rr.Code)
}
