package server

import (
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Products      *handler.ProductHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	AdminAuth     *handler.AdminAuthHandler
	AdminOrders   *handler.AdminOrderHandler
	AdminProducts *handler.AdminProductHandler
	AdminAudit    *handler.AdminAuditHandler
}

type RouteConfig struct {
	JWTSecret    string
	SecureCookie bool
	AdminUsers   repository.AdminUserRepository
}

func RegisterRoutes(e *echo.Echo, h Handlers, cfg RouteConfig) {
	session := middleware.Session(cfg.SecureCookie)
	adminGuards := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg.JWTSecret),
		middleware.AdminActiveGuard(cfg.AdminUsers),
		middleware.AdminRoleGuard(),
	}

	h.Products.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, session)
	h.Checkout.RegisterRoutes(e, session)

	h.AdminAuth.RegisterRoutes(e)
	h.AdminOrders.RegisterRoutes(e, adminGuards...)
	h.AdminProducts.RegisterRoutes(e, adminGuards...)
	h.AdminAudit.RegisterRoutes(e, adminGuards...)
}
