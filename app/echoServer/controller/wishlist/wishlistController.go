package wishlist

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	wsvc "booknest/service/wishlist"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc wsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/wishlist
func (h *Controller) List(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.List(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/wishlist
func (h *Controller) Add(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	var req AddReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error"})
	}
	item, err := h.Svc.Add(c.Request().Context(), userID, req.BookID, req.Priority, req.Notes)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// GET /v1/wishlist/check/:bookId
func (h *Controller) Check(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	in, err := h.Svc.Contains(c.Request().Context(), userID, bookID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"in_wishlist": in})
}

// DELETE /v1/wishlist/book/:bookId
func (h *Controller) RemoveByBook(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.RemoveByBook(c.Request().Context(), userID, bookID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed"})
}

// DELETE /v1/wishlist/:id
func (h *Controller) RemoveByID(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.RemoveByID(c.Request().Context(), userID, id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed"})
}

// PATCH /v1/wishlist/:id
func (h *Controller) Update(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "priority must be 1-5"})
	}
	item, err := h.Svc.Update(c.Request().Context(), userID, id, req.Priority, req.Notes)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// DELETE /v1/wishlist
func (h *Controller) Clear(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	if err := h.Svc.Clear(c.Request().Context(), userID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "wishlist cleared"})
}

func (h *Controller) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, wsvc.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"message": "book already in wishlist"})
	case errors.Is(err, wsvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "wishlist item not found"})
	default:
		h.Log.Error("wishlist error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
