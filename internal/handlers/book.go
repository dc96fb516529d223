package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/es"
	"github.com/avolkov/bookstore/internal/models"
	"github.com/avolkov/bookstore/internal/mykafka"
)

type BookHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

type bookRequest struct {
	Title  string           `json:"title"  validate:"required"`
	Author string           `json:"author" validate:"required"`
	Price  *decimal.Decimal `json:"price"  validate:"required"`
}

func (h *BookHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "book_events", fmt.Sprint(event["bookID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *BookHandler) index(c echo.Context, book models.Book) {
	if h.ES == nil {
		return
	}
	if err := es.IndexBook(c.Request().Context(), h.ES, h.Index, book); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func bindBook(c echo.Context) (*bookRequest, error) {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return nil, apperr.NewValidation(map[string]string{"body": "malformed request body"})
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperr.NewValidation(map[string]string{"price": "must be greater than or equal to 0"})
	}
	return &req, nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 0 {
		return 0, apperr.NewValidation(map[string]string{name: "must be a non-negative integer"})
	}
	return uint(id), nil
}

func (h *BookHandler) GetBooks(c echo.Context) error {
	var books []models.Book
	if err := h.DB.Order("id ASC").Find(&books).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var book models.Book
	if err := h.DB.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("Book not found with id: %d", id)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook persists a new book; any id supplied by the caller is
// ignored, the store assigns one.
func (h *BookHandler) CreateBook(c echo.Context) error {
	req, err := bindBook(c)
	if err != nil {
		return err
	}

	book := models.Book{
		Title:  req.Title,
		Author: req.Author,
		Price:  *req.Price,
	}
	if err := h.DB.Create(&book).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	h.publish(c, map[string]any{
		"type":   "book_created",
		"bookID": book.ID,
		"title":  book.Title,
	})
	h.index(c, book)

	return c.JSON(http.StatusCreated, book)
}

// UpdateBook overwrites every field of an existing book.
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindBook(c)
	if err != nil {
		return err
	}

	var book models.Book
	if err := h.DB.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("Book not found with id: %d", id)
		}
		return fmt.Errorf("db error: %w", err)
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Price = *req.Price

	if err := h.DB.Save(&book).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	h.publish(c, map[string]any{
		"type":   "book_updated",
		"bookID": book.ID,
		"title":  book.Title,
	})
	h.index(c, book)

	return c.JSON(http.StatusAccepted, book)
}

func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var book models.Book
	if err := h.DB.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("Book not found with id: %d", id)
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := h.DB.Delete(&book).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	h.publish(c, map[string]any{
		"type":   "book_deleted",
		"bookID": id,
	})
	if h.ES != nil {
		if err := es.DeleteBook(c.Request().Context(), h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	return c.NoContent(http.StatusOK)
}
