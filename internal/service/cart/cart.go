// Package cart implements the per-user cart: lazy creation, quantity
// merging on add, silent removal, and the checkout projection.
package cart

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/models"
)

type Service struct {
	DB  *gorm.DB
	Log *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// CheckoutView is the read-only projection of a cart with computed
// subtotals. It is derived on demand, never persisted.
type CheckoutView struct {
	Username string          `json:"username"`
	Items    []CheckoutItem  `json:"items"`
	Total    decimal.Decimal `json:"total"`
}

type CheckoutItem struct {
	Book     models.Book     `json:"book"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// GetCart returns the user's cart, creating an empty one on first
// access. The read has a persistence side effect for new users.
func (s *Service) GetCart(username string) (*models.Cart, error) {
	user, err := s.getUser(username)
	if err != nil {
		return nil, err
	}
	return s.getOrCreateCart(user)
}

// AddItem merges quantity into an existing line item for the book, or
// appends a new one.
func (s *Service) AddItem(username string, bookID uint, quantity int) (*models.Cart, error) {
	user, err := s.getUser(username)
	if err != nil {
		return nil, err
	}
	cart, err := s.getOrCreateCart(user)
	if err != nil {
		return nil, err
	}
	book, err := s.getBook(bookID)
	if err != nil {
		return nil, err
	}

	if item, ok := cart.FindItemByBookID(bookID); ok {
		item.Quantity += quantity
		if err := s.DB.Save(item).Error; err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	} else {
		newItem := models.CartItem{CartID: cart.ID, BookID: book.ID, Quantity: quantity}
		if err := s.DB.Create(&newItem).Error; err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return s.reload(cart.ID)
}

// DeleteItem detaches the line item for the book. A book absent from
// the cart is not an error; the cart comes back unchanged. The book
// must still exist in the catalog.
func (s *Service) DeleteItem(username string, bookID uint) (*models.Cart, error) {
	user, err := s.getUser(username)
	if err != nil {
		return nil, err
	}
	cart, err := s.getOrCreateCart(user)
	if err != nil {
		return nil, err
	}
	if _, err := s.getBook(bookID); err != nil {
		return nil, err
	}

	if item, ok := cart.FindItemByBookID(bookID); ok {
		if err := s.DB.Delete(item).Error; err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	} else {
		s.logger().Warn("book not present in the cart", "username", username, "book_id", bookID)
	}

	return s.reload(cart.ID)
}

// Checkout computes subtotal = price x quantity per line item and the
// cart total, starting from zero.
func (s *Service) Checkout(username string) (*CheckoutView, error) {
	cart, err := s.GetCart(username)
	if err != nil {
		return nil, err
	}

	items := make([]CheckoutItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, it := range cart.Items {
		subtotal := it.Book.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, CheckoutItem{
			Book:     it.Book,
			Quantity: it.Quantity,
			Subtotal: subtotal,
		})
		total = total.Add(subtotal)
	}

	return &CheckoutView{Username: username, Items: items, Total: total}, nil
}

func (s *Service) getUser(username string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("User not found with username: %s", username)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (s *Service) getBook(bookID uint) (*models.Book, error) {
	var book models.Book
	if err := s.DB.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Book not found with id: %d", bookID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &book, nil
}

func (s *Service) getOrCreateCart(user *models.User) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.Preload("Items.Book").Where("username = ?", user.Username).First(&cart).Error
	if err == nil {
		if cart.Items == nil {
			cart.Items = []models.CartItem{}
		}
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.logger().Debug("cart not yet created for the user", "username", user.Username)
	cart = models.Cart{Username: user.Username}
	if err := s.DB.Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	cart.Items = []models.CartItem{}
	return &cart, nil
}

func (s *Service) reload(cartID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := s.DB.Preload("Items.Book").First(&cart, cartID).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}
