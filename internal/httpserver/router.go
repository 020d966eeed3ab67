package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/middleware"
)

type Deps struct {
	Prefix             string
	AuthHandler        *AuthHTTP
	CatalogHandler     *CatalogHTTP
	TransactionHandler *TransactionHTTP
	Auth               *middleware.BearerAuth
	Ready              func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_failed", "status", 503, "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group(d.Prefix)

	auth := v1.Group("/auth")
	auth.POST("/sign_up", d.AuthHandler.SignUp)
	auth.POST("/sign_in", d.AuthHandler.SignIn)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout, d.Auth.RequireAuth)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)
	auth.GET("/users", d.AuthHandler.Users, d.Auth.RequireAuth)

	products := v1.Group("/products")
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct)

	trx := v1.Group("/transactions")
	trx.POST("", d.TransactionHandler.Create)
	trx.GET("", d.TransactionHandler.List)
	trx.DELETE("", d.TransactionHandler.DeleteAll)
	trx.GET("/:id", d.TransactionHandler.Get)
	trx.PATCH("/:id", d.TransactionHandler.Update)
	trx.DELETE("/:id", d.TransactionHandler.Delete)
}
