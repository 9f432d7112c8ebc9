package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tasknest/api/internal/auth"
	"github.com/tasknest/api/internal/config"
	"github.com/tasknest/api/internal/database"
	apphttp "github.com/tasknest/api/internal/http"
	"github.com/tasknest/api/internal/logging"
	"github.com/tasknest/api/internal/task"
	"github.com/tasknest/api/internal/user"
)

const testJWTSecret = "integration-test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	Tokens      *auth.JWTService
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dirPath, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, applyMigrations(db))

	bunDB := database.NewBunDB(db)
	logger := logging.NewLogger(true)

	userRepo := user.NewRepository(bunDB)
	taskRepo := task.NewRepository(bunDB)

	tokens, err := auth.NewJWTService([]byte(testJWTSecret), 24*time.Hour)
	require.NoError(t, err)

	authService := auth.NewService(userRepo, tokens, logger)
	taskService := task.NewService(taskRepo, logger)

	authHandler := auth.NewHandler(authService, logger)
	taskHandler := task.NewHandler(taskService, logger)
	authMiddleware := auth.NewMiddleware(tokens)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Env:            "test",
			TrustedOrigins: []string{"*"},
		},
	}

	router := apphttp.NewRouter(cfg, authHandler, taskHandler, authMiddleware, logger)
	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		Tokens:      tokens,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// doJSON issues a request against the test server, optionally with a bearer
// token, and returns the response with its decoded body bytes.
func (app *TestApp) doJSON(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type taskResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsComplete  bool    `json:"is_complete"`
}

type taskListResponse struct {
	Tasks         []taskResponse `json:"tasks"`
	TotalCount    int            `json:"total_count"`
	FilteredCount int            `json:"filtered_count"`
}

// uniqueEmail returns an address no other registration in the run has used
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString())
}

// registerUser creates an account through the public endpoint and returns
// the issued token together with the created user.
func (app *TestApp) registerUser(t *testing.T, email, password string) tokenResponse {
	t.Helper()

	resp, body := app.doJSON(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register %s: %s", email, body)

	var tr tokenResponse
	require.NoError(t, json.Unmarshal(body, &tr))
	return tr
}

// createTask creates a task for the given token and returns it.
func (app *TestApp) createTask(t *testing.T, token, title string) taskResponse {
	t.Helper()

	resp, body := app.doJSON(t, http.MethodPost, "/tasks", token, map[string]any{
		"title": title,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create task: %s", body)

	var created taskResponse
	require.NoError(t, json.Unmarshal(body, &created))
	return created
}
