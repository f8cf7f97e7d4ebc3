package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", "",
		map[string]any{"email": "Ada@Example.com", "password": "correct horse", "name": "Ada"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "correct horse")
	assert.NotContains(t, w.Body.String(), "passwordHash")

	var signup struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "ada@example.com", signup.User.Email)

	w = env.do(t, http.MethodPost, "/api/auth/signup", "",
		map[string]any{"email": "ada@example.com", "password": "another password"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Email already registered."}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]any{"email": "ada@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password."}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]any{"email": "nobody@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]any{"email": "ADA@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), signup.User.ID)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		name    string
		body    any
		wantErr string
	}{
		{"empty body", "", "Invalid request body."},
		{"missing email", map[string]any{"password": "correct horse"}, "email is required."},
		{"bad email", map[string]any{"email": "ada", "password": "correct horse"}, "email must be a valid email address."},
		{"short password", map[string]any{"email": "ada@example.com", "password": "short"}, "password must be at least 8 characters."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/signup", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tc.wantErr+`"}`, w.Body.String())
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/auth/me", "/api/activities", "/api/subscriptions"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"Missing bearer token."}`, w.Body.String())

		w = env.do(t, http.MethodGet, path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"Invalid or expired token."}`, w.Body.String())
	}
}
