package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	svc := newTestService(t, newFakeClock())
	h := RegisterHandler(svc, discardLogger())

	rec := post(h, `{"username":"alice","password":"secret123","role":"staff"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User registered successfully"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret123")

	rec = post(h, `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"User already exists"}`, rec.Body.String())

	rec = post(h, `{"username":"bob"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Username and password are required"}`, rec.Body.String())

	rec = post(h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())
}

func TestLoginHandler(t *testing.T) {
	svc := newTestService(t, newFakeClock())
	register := RegisterHandler(svc, discardLogger())
	login := LoginHandler(svc, discardLogger())
	require.Equal(t, http.StatusCreated, post(register, `{"username":"alice","password":"secret123"}`).Code)

	rec := post(login, `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	id, err := svc.Validate(body["token"])
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)

	wrong := post(login, `{"username":"alice","password":"nope"}`)
	unknown := post(login, `{"username":"mallory","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, unknown.Body.String())
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec = post(login, `{`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
