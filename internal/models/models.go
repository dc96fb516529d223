package models

import (
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

type User struct {
	Username     string `gorm:"primaryKey"  json:"username"`
	PasswordHash string `gorm:"not null"    json:"-"`
	Role         string `gorm:"not null"    json:"role"`
}

type Book struct {
	ID     uint            `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title  string          `gorm:"not null"                  json:"title"`
	Author string          `gorm:"not null"                  json:"author"`
	Price  decimal.Decimal `gorm:"type:decimal(12,2)"        json:"price"`
}

type Cart struct {
	ID       uint       `gorm:"primaryKey;autoIncrement"                 json:"id"`
	Username string     `gorm:"uniqueIndex;not null"                     json:"username"`
	Items    []CartItem `gorm:"constraint:OnDelete:CASCADE"              json:"items"`
}

type CartItem struct {
	ID       uint `gorm:"primaryKey;autoIncrement"    json:"id"`
	CartID   uint `gorm:"index;not null"              json:"-"`
	BookID   uint `gorm:"not null"                    json:"-"`
	Book     Book `json:"book"`
	Quantity int  `gorm:"check:quantity>0"            json:"quantity"`
}

// FindItemByBookID returns the line item referencing bookID, if any.
// At most one such item exists per cart.
func (c *Cart) FindItemByBookID(bookID uint) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

type Session struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	Username  string `gorm:"index;not null"       json:"username"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}
