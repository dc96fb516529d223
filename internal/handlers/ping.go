package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Ping answers "ACK" on the public, user and admin variants; the
// difference between them is only the middleware in front.
func Ping(c echo.Context) error {
	return c.String(http.StatusOK, "ACK")
}
