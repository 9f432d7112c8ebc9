package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLoginFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	email := uniqueEmail("alice")

	// Register
	resp, body := app.doJSON(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":     email,
		"password":  "password123",
		"full_name": "Alice Smith",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	var registered tokenResponse
	require.NoError(t, json.Unmarshal(body, &registered))
	assert.Equal(t, "bearer", registered.TokenType)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, email, registered.User.Email)
	require.NotNil(t, registered.User.FullName)
	assert.Equal(t, "Alice Smith", *registered.User.FullName)
	assert.True(t, registered.User.IsActive)

	// The token subject must be the user's id
	subject, err := app.Tokens.VerifyToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, subject)

	// Login with the same credentials
	resp, body = app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

	var loggedIn tokenResponse
	require.NoError(t, json.Unmarshal(body, &loggedIn))
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	// The issued token works for /auth/me
	resp, body = app.doJSON(t, http.MethodGet, "/auth/me", loggedIn.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me userResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, registered.User.ID, me.ID)
	assert.Equal(t, email, me.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	email := uniqueEmail("bob")
	app.registerUser(t, email, "password123")

	resp, body := app.doJSON(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    email,
		"password": "otherpassword",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "EMAIL_TAKEN", errResp.Code)
}

func TestRegisterValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	tests := []struct {
		name     string
		payload  map[string]any
		wantCode string
	}{
		{
			name:     "missing email",
			payload:  map[string]any{"password": "password123"},
			wantCode: "EMAIL_REQUIRED",
		},
		{
			name:     "invalid email",
			payload:  map[string]any{"email": "not-an-email", "password": "password123"},
			wantCode: "INVALID_EMAIL_FORMAT",
		},
		{
			name:     "short password",
			payload:  map[string]any{"email": "carol@example.com", "password": "short"},
			wantCode: "PASSWORD_TOO_SHORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.doJSON(t, http.MethodPost, "/auth/register", "", tt.payload)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)

			var errResp errorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.wantCode, errResp.Code)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	email := uniqueEmail("dave")
	app.registerUser(t, email, "password123")

	// Repeated wrong passwords never lock the account
	for i := 0; i < 3; i++ {
		resp, body := app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{
			"email":    email,
			"password": "wrongpassword",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d: %s", i, body)

		var errResp errorResponse
		require.NoError(t, json.Unmarshal(body, &errResp))
		assert.Equal(t, "INVALID_CREDENTIALS", errResp.Code)
	}

	resp, _ := app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown email looks exactly like a bad password
	resp, body := app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    uniqueEmail("nobody"),
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "INVALID_CREDENTIALS", errResp.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	email := uniqueEmail("erin")
	registered := app.registerUser(t, email, "password123")

	_, err := app.DB.Exec("UPDATE users SET is_active = FALSE WHERE id = $1", registered.User.ID)
	require.NoError(t, err)

	resp, body := app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "ACCOUNT_INACTIVE", errResp.Code)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
	}

	for _, p := range paths {
		t.Run(fmt.Sprintf("%s %s", p.method, p.path), func(t *testing.T) {
			resp, _ := app.doJSON(t, p.method, p.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		})
	}

	// A garbage token is also rejected
	resp, body := app.doJSON(t, http.MethodGet, "/auth/me", "not.a.token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "INVALID_TOKEN", errResp.Code)
}

func TestMeAfterUserDeleted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	registered := app.registerUser(t, uniqueEmail("frank"), "password123")

	_, err := app.DB.Exec("DELETE FROM users WHERE id = $1", registered.User.ID)
	require.NoError(t, err)

	// The token is still valid but the subject no longer exists
	resp, body := app.doJSON(t, http.MethodGet, "/auth/me", registered.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "USER_NOT_FOUND", errResp.Code)
}

func TestLogoutIsStateless(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	registered := app.registerUser(t, uniqueEmail("grace"), "password123")

	resp, _ := app.doJSON(t, http.MethodPost, "/auth/logout", registered.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The token keeps working: clients discard it, the server keeps no state
	resp, _ = app.doJSON(t, http.MethodGet, "/auth/me", registered.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
