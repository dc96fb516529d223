// Package session implements the server-side session exchanged for
// credentials at login: an opaque token persisted per user, carried by
// an HttpOnly cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/models"
)

const CookieName = "BOOKSTORE_SESSION"

var ErrNoSession = errors.New("no valid session")

type Store struct {
	DB  *gorm.DB
	TTL time.Duration
}

func (s *Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Store) Create(username string) (*models.Session, error) {
	sess := models.Session{
		Token:     uuid.NewString(),
		Username:  username,
		ExpiresAt: time.Now().Add(s.ttl()).Unix(),
	}
	if err := s.DB.Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &sess, nil
}

// Resolve returns the user owning the session token. Unknown, revoked
// and expired tokens all come back as ErrNoSession.
func (s *Store) Resolve(token string) (*models.User, error) {
	var stored models.Session
	if err := s.DB.Where("token = ?", token).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if stored.Revoked || time.Now().Unix() > stored.ExpiresAt {
		return nil, ErrNoSession
	}

	var user models.User
	if err := s.DB.Where("username = ?", stored.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (s *Store) Revoke(token string) error {
	if err := s.DB.Model(&models.Session{}).
		Where("token = ?", token).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func NewCookie(sess *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  time.Unix(sess.ExpiresAt, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-1 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
