package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/hash"
	"github.com/avolkov/bookstore/internal/models"
	"github.com/avolkov/bookstore/internal/mykafka"
	"github.com/avolkov/bookstore/internal/session"
)

type AuthHandler struct {
	DB       *gorm.DB
	Sessions *session.Store
	Producer *mykafka.Producer
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) publish(c echo.Context, username string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", username, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// Register creates a user with the default role. The password never
// appears in the response.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidation(map[string]string{"body": "malformed request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return apperr.AlreadyExistsf("User already exists with username: %s", req.Username)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db error: %w", err)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	h.publish(c, user.Username, map[string]any{
		"type":     "user_registered",
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{"username": user.Username})
}

// Login exchanges credentials for a server-side session. Bad username
// and bad password are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Login failed"})
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Login failed"})
		}
		return fmt.Errorf("db error: %w", err)
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Login failed"})
	}

	sess, err := h.Sessions.Create(user.Username)
	if err != nil {
		return err
	}
	c.SetCookie(session.NewCookie(sess))

	h.publish(c, user.Username, map[string]any{
		"type":     "user_logged_in",
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Login successful",
		"username": user.Username,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no active session")
	}

	if err := h.Sessions.Revoke(cookie.Value); err != nil {
		return err
	}
	c.SetCookie(session.ExpiredCookie())

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
