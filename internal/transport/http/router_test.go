package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/handlers"
	"github.com/avolkov/bookstore/internal/handlers/cart"
	"github.com/avolkov/bookstore/internal/hash"
	"github.com/avolkov/bookstore/internal/models"
	cartservice "github.com/avolkov/bookstore/internal/service/cart"
	"github.com/avolkov/bookstore/internal/session"
	"github.com/avolkov/bookstore/internal/validation"
)

type env struct {
	E        *echo.Echo
	DB       *gorm.DB
	Sessions *session.Store
}

func newEnv(t *testing.T) *env {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Cart{}, &models.CartItem{}, &models.Session{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	e := echo.New()
	e.Validator = validation.New()
	e.HTTPErrorHandler = apperr.ErrorHandler()

	sessions := &session.Store{DB: db, TTL: time.Hour}
	Register(e, &Deps{
		DB:          db,
		Sessions:    sessions,
		AuthHandler: &handlers.AuthHandler{DB: db, Sessions: sessions},
		BookHandler: &handlers.BookHandler{DB: db},
		CartHandler: &cart.CartHandler{Service: &cartservice.Service{DB: db}},
	})

	return &env{E: e, DB: db, Sessions: sessions}
}

func (v *env) login(t *testing.T, username, role string) *http.Cookie {
	t.Helper()
	hashed, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, v.DB.Create(&models.User{Username: username, PasswordHash: hashed, Role: role}).Error)

	sess, err := v.Sessions.Create(username)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: sess.Token}
}

func (v *env) do(method, target string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	v.E.ServeHTTP(rec, req)
	return rec
}

func TestPingRoutes(t *testing.T) {
	v := newEnv(t)
	userCk := v.login(t, "alice", models.RoleUser)
	adminCk := v.login(t, "root", models.RoleAdmin)

	rec := v.do(http.MethodGet, "/api/v1/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ACK", rec.Body.String())

	// no session
	require.Equal(t, http.StatusUnauthorized, v.do(http.MethodGet, "/api/v1/ping/user", nil).Code)

	// right role
	require.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v1/ping/user", nil, userCk).Code)
	require.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v1/ping/admin", nil, adminCk).Code)

	// wrong role
	require.Equal(t, http.StatusForbidden, v.do(http.MethodGet, "/api/v1/ping/admin", nil, userCk).Code)
	require.Equal(t, http.StatusForbidden, v.do(http.MethodGet, "/api/v1/ping/user", nil, adminCk).Code)
}

func TestBookRoutesAuthorization(t *testing.T) {
	v := newEnv(t)
	userCk := v.login(t, "alice", models.RoleUser)
	adminCk := v.login(t, "root", models.RoleAdmin)

	payload := map[string]any{"title": "Dune", "author": "Herbert", "price": "12.34"}

	// public reads
	require.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v1/books", nil).Code)
	require.Equal(t, http.StatusNotFound, v.do(http.MethodGet, "/api/v1/books/1", nil).Code)

	// writes gated on ADMIN
	require.Equal(t, http.StatusUnauthorized, v.do(http.MethodPost, "/api/v1/books", payload).Code)
	require.Equal(t, http.StatusForbidden, v.do(http.MethodPost, "/api/v1/books", payload, userCk).Code)

	rec := v.do(http.MethodPost, "/api/v1/books", payload, adminCk)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Equal(t, http.StatusAccepted, v.do(http.MethodPut, "/api/v1/books/1", payload, adminCk).Code)
	require.Equal(t, http.StatusOK, v.do(http.MethodDelete, "/api/v1/books/1", nil, adminCk).Code)
	require.Equal(t, http.StatusNotFound, v.do(http.MethodDelete, "/api/v1/books/1", nil, adminCk).Code)
}

func TestBookValidationEnvelope(t *testing.T) {
	v := newEnv(t)
	adminCk := v.login(t, "root", models.RoleAdmin)

	rec := v.do(http.MethodPost, "/api/v1/books", map[string]any{"title": "no author"}, adminCk)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["timestamp"])
	require.EqualValues(t, http.StatusBadRequest, body["status"])
	require.Contains(t, body, "validationErrors")
}

func TestCartRoutesFlow(t *testing.T) {
	v := newEnv(t)
	userCk := v.login(t, "alice", models.RoleUser)
	adminCk := v.login(t, "root", models.RoleAdmin)

	book := models.Book{Title: "Dune", Author: "Herbert"}
	require.NoError(t, v.DB.Create(&book).Error)

	require.Equal(t, http.StatusUnauthorized, v.do(http.MethodGet, "/api/v1/cart", nil).Code)
	require.Equal(t, http.StatusForbidden, v.do(http.MethodGet, "/api/v1/cart", nil, adminCk).Code)

	rec := v.do(http.MethodGet, "/api/v1/cart", nil, userCk)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusOK, v.do(http.MethodPost, "/api/v1/cart/item/1/quantity/2", nil, userCk).Code)
	require.Equal(t, http.StatusBadRequest, v.do(http.MethodPost, "/api/v1/cart/item/1/quantity/0", nil, userCk).Code)
	require.Equal(t, http.StatusNotFound, v.do(http.MethodPost, "/api/v1/cart/item/99/quantity/1", nil, userCk).Code)
	require.Equal(t, http.StatusOK, v.do(http.MethodDelete, "/api/v1/cart/item/1", nil, userCk).Code)
	require.Equal(t, http.StatusOK, v.do(http.MethodPost, "/api/v1/cart/checkout", nil, userCk).Code)
}

func TestRegisterAndLoginFlow(t *testing.T) {
	v := newEnv(t)

	payload := map[string]string{"username": "bob", "password": "secret"}
	require.Equal(t, http.StatusCreated, v.do(http.MethodPost, "/api/v1/users/register", payload).Code)
	require.Equal(t, http.StatusBadRequest, v.do(http.MethodPost, "/api/v1/users/register", payload).Code)

	rec := v.do(http.MethodPost, "/api/v1/users/login", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	res := rec.Result()
	defer res.Body.Close()
	var sessCk *http.Cookie
	for _, ck := range res.Cookies() {
		if ck.Name == session.CookieName {
			sessCk = ck
		}
	}
	require.NotNil(t, sessCk)

	require.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v1/ping/user", nil, sessCk).Code)

	bad := map[string]string{"username": "bob", "password": "wrong"}
	require.Equal(t, http.StatusUnauthorized, v.do(http.MethodPost, "/api/v1/users/login", bad).Code)
}
