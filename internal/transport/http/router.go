package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/handlers"
	"github.com/avolkov/bookstore/internal/handlers/cart"
	"github.com/avolkov/bookstore/internal/models"
	"github.com/avolkov/bookstore/internal/session"
)

type Deps struct {
	DB            *gorm.DB
	Sessions      *session.Store
	AuthHandler   *handlers.AuthHandler
	BookHandler   *handlers.BookHandler
	CartHandler   *cart.CartHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.GET("/ping", handlers.Ping)
	v1.GET("/ping/user", handlers.Ping, d.Sessions.Authenticate, session.RequireRole(models.RoleUser))
	v1.GET("/ping/admin", handlers.Ping, d.Sessions.Authenticate, session.RequireRole(models.RoleAdmin))

	v1.POST("/users/register", d.AuthHandler.Register)
	v1.POST("/users/login", d.AuthHandler.Login)
	v1.POST("/users/logout", d.AuthHandler.Logout)

	books := v1.Group("/books")
	books.GET("", d.BookHandler.GetBooks)
	books.GET("/:id", d.BookHandler.GetBook)

	admin := v1.Group("/books", d.Sessions.Authenticate, session.RequireRole(models.RoleAdmin))
	admin.POST("", d.BookHandler.CreateBook)
	admin.PUT("/:id", d.BookHandler.UpdateBook)
	admin.DELETE("/:id", d.BookHandler.DeleteBook)

	userCart := v1.Group("/cart", d.Sessions.Authenticate, session.RequireRole(models.RoleUser))
	userCart.GET("", d.CartHandler.GetCart)
	userCart.POST("/item/:bookId/quantity/:quantity", d.CartHandler.AddItem)
	userCart.DELETE("/item/:bookId", d.CartHandler.DeleteItem)
	userCart.POST("/checkout", d.CartHandler.Checkout)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}
}
