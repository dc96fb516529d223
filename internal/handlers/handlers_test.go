package handlers

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

	"github.com/avolkov/bookstore/internal/models"
	"github.com/avolkov/bookstore/internal/session"
	"github.com/avolkov/bookstore/internal/validation"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Cart{}, &models.CartItem{}, &models.Session{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, target string, payload any) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func newSessionStore(db *gorm.DB) *session.Store {
	return &session.Store{DB: db, TTL: time.Hour}
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}
