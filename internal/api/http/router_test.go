package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
)

type memoryUserRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int64
}

func (m *memoryUserRepo) Create(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[account.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	m.nextID++
	account.ID = m.nextID
	stored := *account
	m.accounts[account.Email] = &stored
	return nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

type staticProductRepo struct {
	products []domain.Product
}

func (s *staticProductRepo) List(context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			TokenTTLMinutes: 60,
			BcryptCost:      bcrypt.MinCost,
		},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	users := &memoryUserRepo{accounts: make(map[string]*domain.Account)}
	authService := service.NewAuthService(cfg, users, nil)

	products := &staticProductRepo{products: []domain.Product{
		{ID: 1, Code: "PRD-1", Name: "Widget", Quantity: 3, UnitPrice: 9.99},
	}}
	productService := service.NewProductService(products, nil, time.Minute, logger)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Auth:           handlers.NewAuthHandler(authService),
		Products:       handlers.NewProductsHandler(productService),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager(), logger),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func signupAndLogin(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Test User",
		"email":    email,
		"password": "secret123",
		"role":     role,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	authData := data["auth"].(map[string]any)
	token := authData["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSignup_Created(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"password": "secret123",
		"role":     "Regular",
	}, nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["userId"])
}

func TestSignup_ValidationFailureListsFields(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "",
		"email":    "not-an-email",
		"password": "abc",
		"role":     "Super",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])

	details := errBody["details"].(map[string]any)
	assert.Contains(t, details, "fullName")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "role")
}

func TestSignup_DuplicateEmailConflict(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	payload := map[string]string{
		"fullName": "Jane Doe",
		"email":    "a@x.com",
		"password": "secret123",
		"role":     "Regular",
	}
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload["fullName"] = "Someone Else"
	payload["role"] = "Admin"
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", payload, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "CONFLICT", errBody["code"])
}

func TestLogin_SuccessShape(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"password": "secret123",
		"role":     "Admin",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "Admin", user["role"])
	authData := data["auth"].(map[string]any)
	assert.NotEmpty(t, authData["token"])
	assert.NotEmpty(t, authData["expires_at"])
}

func TestLogin_FailureShapesIdentical(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"password": "secret123",
		"role":     "Regular",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongResp, wrongBody := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong-password",
	}, nil)
	unknownResp, unknownBody := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "secret123",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongResp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
	// wrong password and unknown email are indistinguishable to the client
	assert.Equal(t, wrongBody, unknownBody)
}

func TestProducts_MissingTokenUnauthorized(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/products", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
}

func TestProducts_MalformedHeaderUnauthorized(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/products", nil, map[string]string{
		fiber.HeaderAuthorization: "Basic abcdef",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_InvalidTokenForbidden(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/products", nil, map[string]string{
		fiber.HeaderAuthorization: "Bearer not-a-valid-token",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "FORBIDDEN", errBody["code"])
}

func TestProducts_RegularRoleForbidden(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token := signupAndLogin(t, app, "regular@example.com", "Regular")
	resp, body := doJSON(t, app, http.MethodGet, "/api/products", nil, map[string]string{
		fiber.HeaderAuthorization: "Bearer " + token,
	})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Contains(t, errBody["message"], "Admin")
}

func TestProducts_AdminRoleAllowed(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token := signupAndLogin(t, app, "admin@example.com", "Admin")
	resp, body := doJSON(t, app, http.MethodGet, "/api/products", nil, map[string]string{
		fiber.HeaderAuthorization: "Bearer " + token,
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	product := data[0].(map[string]any)
	assert.Equal(t, "Widget", product["name"])
}

func TestSignup_MalformedBody(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
