package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"booknest/model"
	cartsvc "booknest/service/cart"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc cartsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/cart
func (h *Controller) Get(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	cart, err := h.Svc.Get(c.Request().Context(), userID)
	if err != nil {
		h.Log.Error("cart load error", "user_id", userID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, cart)
}

// POST /v1/cart/items
func (h *Controller) Add(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	var req AddItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error"})
	}
	cart, err := h.Svc.Add(c.Request().Context(), userID, req.BookID, req.PickupDate, req.BorrowingDuration)
	if err != nil {
		return h.cartError(c, userID, err)
	}
	return c.JSON(http.StatusCreated, cart)
}

// PATCH /v1/cart/items/:bookId
func (h *Controller) Update(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error"})
	}
	cart, err := h.Svc.Update(c.Request().Context(), userID, bookID, model.CartPatch{
		PickupDate:        req.PickupDate,
		BorrowingDuration: req.BorrowingDuration,
	})
	if err != nil {
		return h.cartError(c, userID, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// DELETE /v1/cart/items/:bookId
func (h *Controller) Remove(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	cart, err := h.Svc.Remove(c.Request().Context(), userID, bookID)
	if err != nil {
		return h.cartError(c, userID, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// DELETE /v1/cart
func (h *Controller) Clear(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	if err := h.Svc.Clear(c.Request().Context(), userID); err != nil {
		return h.cartError(c, userID, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

func (h *Controller) cartError(c echo.Context, userID int64, err error) error {
	switch {
	case errors.Is(err, model.ErrCartFull):
		return c.JSON(http.StatusConflict, echo.Map{"message": "cart is full"})
	case errors.Is(err, model.ErrDuplicateItem):
		return c.JSON(http.StatusConflict, echo.Map{"message": "book already in cart"})
	case errors.Is(err, model.ErrBadDuration):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "borrowing duration must be 7, 14 or 21 days"})
	default:
		h.Log.Error("cart error", "user_id", userID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
