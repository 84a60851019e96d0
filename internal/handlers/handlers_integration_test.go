package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"conduit/internal/auth"
	"conduit/internal/database"
	"conduit/internal/handlers"
	"conduit/internal/observability"
	"conduit/internal/repositories"
	"conduit/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	// Initialize Repositories
	userRepo := repositories.NewGORMUserRepository(db)
	articleRepo := repositories.NewGORMArticleRepository(db)

	// Initialize Services
	authService := services.NewAuthService(userRepo, auth.NewTokenIssuer([]byte("test_jwt_secret"), time.Hour))
	ledger := services.NewRelationshipService(userRepo, services.NewFavoriteCounter(userRepo, articleRepo), nil)
	profileService := services.NewProfileService(userRepo, ledger)
	articleService := services.NewArticleService(articleRepo, ledger)

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewProfileHandler(authService, profileService).RegisterRoutes(api)
	handlers.NewArticleHandler(authService, articleService).RegisterRoutes(api)
	return app
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	observability.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type jsonBody map[string]interface{}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, jsonBody) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded jsonBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func register(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	status, body := doRequest(t, app, http.MethodPost, "/api/users", "", jsonBody{
		"user": jsonBody{"username": username, "email": username + "@example.com", "password": "password123"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	token, _ := body["user"].(map[string]interface{})["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func field(body jsonBody, object, name string) interface{} {
	inner, _ := body[object].(map[string]interface{})
	return inner[name]
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodPost, "/api/users", "", jsonBody{
		"user": jsonBody{"username": "Jake", "email": "Jake@Jake.jake", "password": "jakejake"},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "jake", field(body, "user", "username"))
	assert.Equal(t, "jake@jake.jake", field(body, "user", "email"))
	assert.NotEmpty(t, field(body, "user", "token"))
	assert.NotContains(t, body["user"], "passwordHash")

	// Duplicate email with a fresh username creates nothing.
	status, body = doRequest(t, app, http.MethodPost, "/api/users", "", jsonBody{
		"user": jsonBody{"username": "other", "email": "jake@jake.jake", "password": "pw"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []interface{}{"is already taken."}, field(body, "errors", "email"))

	status, _ = doRequest(t, app, http.MethodGet, "/api/profiles/other", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Invalid format
	status, body = doRequest(t, app, http.MethodPost, "/api/users", "", jsonBody{
		"user": jsonBody{"username": "bad name", "email": "nope"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "username")
	assert.Contains(t, body["errors"], "email")
	assert.Contains(t, body["errors"], "password")

	// Test Login
	status, body = doRequest(t, app, http.MethodPost, "/api/users/login", "", jsonBody{
		"user": jsonBody{"email": "jake@jake.jake", "password": "jakejake"},
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := field(body, "user", "token").(string)
	require.NotEmpty(t, token)

	status, body = doRequest(t, app, http.MethodPost, "/api/users/login", "", jsonBody{
		"user": jsonBody{"email": "jake@jake.jake", "password": "wrong"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []interface{}{"is invalid"}, field(body, "errors", "email or password"))

	status, body = doRequest(t, app, http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jake", field(body, "user", "username"))

	status, _ = doRequest(t, app, http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFollowScenario(t *testing.T) {
	app := setupApp(t)
	alice := register(t, app, "alice")
	register(t, app, "bob")

	status, body := doRequest(t, app, http.MethodGet, "/api/profiles/bob", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, field(body, "profile", "following"))
	assert.Equal(t, "https://static.productionready.io/images/smiley-cyrus.jpg", field(body, "profile", "image"))

	status, body = doRequest(t, app, http.MethodPost, "/api/profiles/bob/follow", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, field(body, "profile", "following"))

	_, body = doRequest(t, app, http.MethodGet, "/api/profiles/bob", alice, nil)
	assert.Equal(t, true, field(body, "profile", "following"))

	// Anonymous and invalid-token viewers see the same profile without the relation.
	_, body = doRequest(t, app, http.MethodGet, "/api/profiles/bob", "", nil)
	assert.Equal(t, false, field(body, "profile", "following"))
	status, body = doRequest(t, app, http.MethodGet, "/api/profiles/bob", "forged.token.value", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, field(body, "profile", "following"))

	status, body = doRequest(t, app, http.MethodDelete, "/api/profiles/bob/follow", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, field(body, "profile", "following"))

	status, _ = doRequest(t, app, http.MethodPost, "/api/profiles/nobody/follow", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/profiles/bob/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFavoriteScenario(t *testing.T) {
	app := setupApp(t)
	author := register(t, app, "author")
	alice := register(t, app, "alice")
	carol := register(t, app, "carol")

	status, body := doRequest(t, app, http.MethodPost, "/api/articles", author, jsonBody{
		"article": jsonBody{"title": "How to train your dragon", "description": "Ever wonder how?", "body": "You have to believe", "tagList": []string{"dragons", "training"}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	slug, _ := field(body, "article", "slug").(string)
	require.Regexp(t, `^how-to-train-your-dragon-[0-9a-z]+$`, slug)
	assert.EqualValues(t, 0, field(body, "article", "favoritesCount"))
	assert.Equal(t, []interface{}{"dragons", "training"}, field(body, "article", "tagList"))

	status, body = doRequest(t, app, http.MethodPost, "/api/articles/"+slug+"/favorite", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, field(body, "article", "favorited"))
	assert.EqualValues(t, 1, field(body, "article", "favoritesCount"))

	// Repeating a favorite is idempotent.
	_, body = doRequest(t, app, http.MethodPost, "/api/articles/"+slug+"/favorite", alice, nil)
	assert.EqualValues(t, 1, field(body, "article", "favoritesCount"))

	_, body = doRequest(t, app, http.MethodPost, "/api/articles/"+slug+"/favorite", carol, nil)
	assert.EqualValues(t, 2, field(body, "article", "favoritesCount"))

	status, body = doRequest(t, app, http.MethodDelete, "/api/articles/"+slug+"/favorite", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, field(body, "article", "favorited"))
	assert.EqualValues(t, 1, field(body, "article", "favoritesCount"))

	_, body = doRequest(t, app, http.MethodGet, "/api/articles/"+slug, carol, nil)
	assert.Equal(t, true, field(body, "article", "favorited"))
	assert.EqualValues(t, 1, field(body, "article", "favoritesCount"))

	_, body = doRequest(t, app, http.MethodGet, "/api/articles/"+slug, "", nil)
	assert.Equal(t, false, field(body, "article", "favorited"))
	author0, _ := body["article"].(map[string]interface{})["author"].(map[string]interface{})
	assert.Equal(t, "author", author0["username"])

	status, _ = doRequest(t, app, http.MethodPost, "/api/articles/missing/favorite", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/articles", "", jsonBody{"article": jsonBody{"title": "x"}})
	assert.Equal(t, http.StatusUnauthorized, status)
}
