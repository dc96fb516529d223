package cart

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/mykafka"
	cartservice "github.com/avolkov/bookstore/internal/service/cart"
	"github.com/avolkov/bookstore/internal/session"
)

type CartHandler struct {
	Service  *cartservice.Service
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key, _ := event["username"].(string)
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func principal(c echo.Context) (session.Principal, error) {
	p, ok := session.FromContext(c)
	if !ok {
		return session.Principal{}, apperr.Unauthorized("Authentication required")
	}
	return p, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	cart, err := h.Service.GetCart(p.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// AddItem handles POST /cart/item/:bookId/quantity/:quantity. Quantity
// below 1 and negative book ids are rejected before the service runs.
func (h *CartHandler) AddItem(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil || bookID < 0 {
		return apperr.NewValidation(map[string]string{"bookId": "must be a non-negative integer"})
	}
	quantity, err := strconv.Atoi(c.Param("quantity"))
	if err != nil || quantity < 1 {
		return apperr.NewValidation(map[string]string{"quantity": "must be at least 1"})
	}

	cart, err := h.Service.AddItem(p.Username, uint(bookID), quantity)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_added",
		"username": p.Username,
		"bookID":   bookID,
		"quantity": quantity,
	})
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) DeleteItem(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil || bookID < 0 {
		return apperr.NewValidation(map[string]string{"bookId": "must be a non-negative integer"})
	}

	cart, err := h.Service.DeleteItem(p.Username, uint(bookID))
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_deleted",
		"username": p.Username,
		"bookID":   bookID,
	})
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Checkout(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	view, err := h.Service.Checkout(p.Username)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "cart_checked_out",
		"username": p.Username,
		"total":    view.Total,
	})
	return c.JSON(http.StatusOK, view)
}
