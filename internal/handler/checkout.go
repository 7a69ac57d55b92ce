package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/dto"
	"storefront-checkout/internal/middleware"
	"storefront-checkout/internal/model"
	"storefront-checkout/internal/service"
)

// validate is a singleton instance of the validator.
var validate = validator.New()

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// secureTransport reports whether the request arrived over the secure wire
// protocol, directly or behind a TLS-terminating proxy. Card tokenization is
// only offered when this is genuinely true.
func secureTransport(c echo.Context) bool {
	if c.Request().TLS != nil {
		return true
	}
	return c.Request().Header.Get("X-Forwarded-Proto") == "https"
}

func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.checkoutService.CreateSession(ctx, req.ProductID, req.OriginURL)
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(http.StatusCreated, session)
}

func (h *CheckoutHandler) LoadSession(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.Param("id")
	securityToken := c.QueryParam("token")

	snapshot, err := h.checkoutService.LoadSession(ctx, sessionID, securityToken, secureTransport(c))
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(http.StatusOK, snapshot)
}

func (h *CheckoutHandler) Snapshot(c echo.Context) error {
	ctx := c.Request().Context()

	snapshot, err := h.checkoutService.Snapshot(ctx, c.Param("id"))
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(http.StatusOK, snapshot)
}

func (h *CheckoutHandler) SelectMethod(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SelectMethodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	payer := service.PayerData{
		Email:    req.Payer.Email,
		Document: req.Payer.Document,
		Address: model.Address{
			ZipCode:      req.Payer.Address.ZipCode,
			Street:       req.Payer.Address.Street,
			Number:       req.Payer.Address.Number,
			Neighborhood: req.Payer.Address.Neighborhood,
			City:         req.Payer.Address.City,
			State:        req.Payer.Address.State,
		},
	}

	err := h.checkoutService.SelectMethod(ctx, c.Param("id"), model.PaymentMethod(req.Method), payer)
	if err != nil {
		return translateError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHandler) ApplyCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ApplyCouponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	applied, err := h.checkoutService.ApplyCoupon(ctx, c.Param("id"), req.Code)
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(http.StatusOK, applied)
}

func (h *CheckoutHandler) RemoveCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.checkoutService.RemoveCoupon(ctx, c.Param("id")); err != nil {
		return translateError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHandler) TokenizeCard(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TokenizeCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.checkoutService.TokenizeCard(ctx, c.Param("id"), &client.CardData{
		Number:       req.Number,
		HolderName:   req.HolderName,
		ExpiryMonth:  req.ExpiryMonth,
		ExpiryYear:   req.ExpiryYear,
		SecurityCode: req.SecurityCode,
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(http.StatusOK, token)
}

func (h *CheckoutHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.checkoutService.Submit(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// translateError maps checkout errors onto HTTP statuses; anything that is
// not a CheckoutError bubbles up to echo's recover/error middleware as a 500.
func translateError(c echo.Context, err error) error {
	var cerr *dto.CheckoutError
	if !errors.As(err, &cerr) {
		return err
	}

	status := http.StatusUnprocessableEntity
	switch cerr.Code {
	case service.CodeAuthRequired:
		status = http.StatusUnauthorized
	case service.CodeNotAuthorized, service.CodeSessionTampered:
		status = http.StatusForbidden
	case service.CodeSessionInvalid:
		status = http.StatusNotFound
	case service.CodeSessionExpired:
		status = http.StatusGone
	case service.CodeGatewayDown:
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, cerr)
}
