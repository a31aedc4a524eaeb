package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/handlers"
	"github.com/campusbooks/marketplace/internal/handlers/cart"
	"github.com/campusbooks/marketplace/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	GenerateHandler *handlers.GenerateHandler
	OrderHandler    *handlers.OrderHandler
	CartHandler     *cart.CartHandler
	SearchHandler   *handlers.SearchHandler
	TokenService    *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/logout", d.AuthHandler.Logout)

	api.GET("/search", d.SearchHandler.Search)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:slug", d.ProductHandler.GetProduct)

	authed := api.Group("", d.TokenService.AutoRefreshMiddleware)
	authed.POST("/products", d.ProductHandler.CreateProduct)
	authed.PUT("/products/:slug", d.ProductHandler.UpdateProduct)
	authed.DELETE("/products/:slug", d.ProductHandler.DeleteProduct)
	authed.POST("/products/generate", d.GenerateHandler.Generate)

	authed.GET("/cart", d.CartHandler.GetCart)
	authed.POST("/cart", d.CartHandler.Dispatch)

	authed.GET("/orders/:id", d.OrderHandler.GetOrder)
	authed.POST("/orders/:id", d.OrderHandler.Refund)
}
