package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/budget_api/internal/events"
	"github.com/Skotchmaster/budget_api/internal/middleware"
	"github.com/Skotchmaster/budget_api/internal/models"
	"github.com/Skotchmaster/budget_api/internal/repo"
	"github.com/Skotchmaster/budget_api/internal/service"
	"github.com/Skotchmaster/budget_api/internal/testutil"
	"github.com/Skotchmaster/budget_api/internal/tokens"
)

const prefix = "/api/v1"

type testEnv struct {
	DB    *gorm.DB
	Echo  *echo.Echo
	ready error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewSQLite(t)
	r := repo.New(db)
	tok := tokens.NewService([]byte("test-access"), []byte("test-refresh"), time.Hour)

	env := &testEnv{DB: db, Echo: echo.New()}
	Register(env.Echo, &Deps{
		Prefix: prefix,
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo: r, Tokens: tok, Events: events.Noop{}, BcryptCost: bcrypt.MinCost,
		}},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{
			Repo: r, Events: events.Noop{}, MinPrice: service.DefaultMinProductPrice,
		}},
		TransactionHandler: &TransactionHTTP{Svc: &service.TransactionService{Repo: r, Events: events.Noop{}}},
		Auth:               middleware.NewBearerAuth(tok),
		Ready:              func(context.Context) error { return env.ready },
	})
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, prefix+path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	User         map[string]any `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

func signUp(t *testing.T, env *testEnv, email string) authBody {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/sign_up", map[string]any{
		"email":     email,
		"password":  "secret1",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"phone":     "+16502530000",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](t, rec)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	env.ready = errors.New("db down")
	rec = httptest.NewRecorder()
	env.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	reg := signUp(t, env, "Ada@Example.com")
	assert.Equal(t, "ada@example.com", reg.User["email"])
	assert.NotContains(t, reg.User, "refreshToken")
	assert.NotContains(t, reg.User, "passwordHash")

	rec := env.do(t, http.MethodPost, "/auth/sign_up", map[string]any{
		"email": "ada@example.com", "password": "secret1", "firstName": "A", "lastName": "B", "phone": "+16502530000",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/sign_in", map[string]any{"email": "ada@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")

	rec = env.do(t, http.MethodPost, "/auth/sign_in", map[string]any{"email": "ada@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authBody](t, rec)

	rec = env.do(t, http.MethodGet, "/auth/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "Ada", me["firstName"])
	assert.NotContains(t, me, "refreshToken")

	rec = env.do(t, http.MethodGet, "/auth/users", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]any{"token": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decode[tokens.Pair](t, rec)
	assert.NotEmpty(t, pair.AccessToken)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]any{"token": login.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/logout", map[string]any{"email": "ada@example.com"}, pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.LogoutMessage, decode[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/auth/logout", map[string]any{"email": "ada@example.com"}, pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/logout", map[string]any{}, pair.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]any{"token": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ProtectedRoutesNeedBearer(t *testing.T) {
	env := newTestEnv(t)
	reg := signUp(t, env, "ada@example.com")

	for _, path := range []string{"/auth/me", "/auth/users"} {
		rec := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = env.do(t, http.MethodGet, path, nil, reg.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := env.do(t, http.MethodPost, "/auth/logout", map[string]any{"email": "ada@example.com"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_PaddedEmailIsNormalized(t *testing.T) {
	env := newTestEnv(t)

	reg := signUp(t, env, " ADA@example.com ")
	assert.Equal(t, "ada@example.com", reg.User["email"])

	rec := env.do(t, http.MethodPost, "/auth/sign_in", map[string]any{"email": "  Ada@Example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuth_SignUpValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/sign_up", map[string]any{
		"email": "ada@example.com", "password": "123", "firstName": "A", "lastName": "B", "phone": "+16502530000",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/sign_up", map[string]any{
		"email": "ada@example.com", "password": strings.Repeat("a", 80), "firstName": "A", "lastName": "B", "phone": "+16502530000",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, prefix+"/auth/sign_up", bytes.NewBufferString("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	env.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/products", map[string]any{"name": "Tea", "price": 4}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tea := decode[models.Product](t, rec)

	rec = env.do(t, http.MethodPost, "/products", map[string]any{"name": "Tea", "price": 5}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/products", map[string]any{"name": "Gum", "price": 1}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/products/"+tea.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tea", decode[models.Product](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/products/"+uuid.NewString(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = env.do(t, http.MethodGet, "/products/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/products/"+tea.ID.String(), map[string]any{"price": 0}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[models.Product](t, rec).Price)

	rec = env.do(t, http.MethodPatch, "/products/"+tea.ID.String(), map[string]any{"price": -3}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/products/"+uuid.NewString(), map[string]any{"price": 3}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/products/search?q=te&page=1&size=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[service.SearchResult](t, rec)
	assert.EqualValues(t, 1, found.Meta.Total)

	rec = env.do(t, http.MethodGet, "/products/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/products/"+tea.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tea.ID, decode[models.Product](t, rec).ID)

	rec = env.do(t, http.MethodDelete, "/products/"+tea.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactions(t *testing.T) {
	env := newTestEnv(t)
	reg := signUp(t, env, "ada@example.com")
	userID := reg.User["id"].(string)

	rec := env.do(t, http.MethodPost, "/products", map[string]any{"name": "Tea", "price": 4}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	tea := decode[models.Product](t, rec)
	rec = env.do(t, http.MethodPost, "/products", map[string]any{"name": "Coffee", "price": 5}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	coffee := decode[models.Product](t, rec)

	rec = env.do(t, http.MethodPost, "/transactions", map[string]any{
		"userId": userID,
		"items": []map[string]any{
			{"productId": tea.ID, "quantity": 2},
			{"productId": tea.ID, "quantity": 3},
			{"productId": coffee.ID, "quantity": 1},
		},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trx := decode[models.Transaction](t, rec)
	require.Len(t, trx.Items, 2)
	assert.Equal(t, 5, trx.Items[0].Quantity)
	require.NotNil(t, trx.User)
	assert.Nil(t, trx.User.RefreshToken)

	missing := uuid.NewString()
	rec = env.do(t, http.MethodPost, "/transactions", map[string]any{
		"userId": userID,
		"items":  []map[string]any{{"productId": missing, "quantity": 1}},
	}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), missing)

	rec = env.do(t, http.MethodPost, "/transactions", map[string]any{"userId": userID, "items": []any{}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/products/"+tea.ID.String(), nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/transactions/"+trx.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/transactions/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/transactions/"+trx.ID.String(), map[string]any{
		"items": []map[string]any{{"productId": coffee.ID, "quantity": 7}},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Transaction](t, rec)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 7, updated.Items[0].Quantity)

	rec = env.do(t, http.MethodPatch, "/transactions/"+trx.ID.String(), map[string]any{"items": []any{}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/transactions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Transaction](t, rec), 1)

	rec = env.do(t, http.MethodDelete, "/transactions/"+trx.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, trx.ID, decode[models.Transaction](t, rec).ID)

	rec = env.do(t, http.MethodDelete, "/transactions/"+trx.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/transactions", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
