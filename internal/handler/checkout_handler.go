package handler

import (
	"net/http"

	"storefront/internal/domain/checkout"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, session echo.MiddlewareFunc) {
	g := e.Group("/checkout", session)

	g.POST("", h.begin)
	g.GET("", h.get)
	g.PUT("/contact", h.updateContact)
	g.POST("/next", h.next)
	g.POST("/back", h.back)
	g.POST("/submit", h.submit)
	g.POST("/cancel", h.cancel)
}

func (h *CheckoutHandler) begin(c echo.Context) error {
	st, err := h.uc.Begin(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) get(c echo.Context) error {
	st, err := h.uc.Get(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) updateContact(c echo.Context) error {
	var req checkout.Draft
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	st, err := h.uc.UpdateContact(c.Request().Context(), middleware.SessionID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) next(c echo.Context) error {
	st, err := h.uc.Next(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) back(c echo.Context) error {
	st, err := h.uc.Back(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) submit(c echo.Context) error {
	out, err := h.uc.Submit(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CheckoutHandler) cancel(c echo.Context) error {
	st, err := h.uc.Cancel(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
