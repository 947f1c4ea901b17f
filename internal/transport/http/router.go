package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mkosyrev/product-store/internal/handlers"
	authmw "github.com/mkosyrev/product-store/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
	Filter         *authmw.Filter
}

// Register wires every route behind the authentication filter and the
// static authorization policy.
func Register(e *echo.Echo, d *Deps) {
	e.Validator = handlers.NewValidator()

	e.Use(d.Filter.Middleware(), authmw.Enforce(authmw.Policy))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.Ping() != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/auth/register", d.AuthHandler.Register)
	e.POST("/auth/login", d.AuthHandler.Login)
	e.GET("/auth/access", d.AuthHandler.Access)
	e.GET("/auth/logout", d.AuthHandler.LogOut)

	e.GET("/products", d.ProductHandler.GetProducts)
	e.GET("/products/:id", d.ProductHandler.GetProduct)
	e.POST("/products", d.ProductHandler.CreateProduct)
	e.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	if d.SearchHandler != nil {
		e.GET("/products/search", d.SearchHandler.Search)
	}
}
