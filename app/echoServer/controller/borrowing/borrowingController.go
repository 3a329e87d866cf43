package borrowing

import (
	"log/slog"
	"net/http"

	"booknest/model"
	bsvc "booknest/service/borrowing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc bsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// PATCH /v1/borrowings/:id/extend
func (h *Controller) Extend(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.Extend(c.Request().Context(), userID, id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// PATCH /v1/borrowings/:id/return  (staff)
func (h *Controller) Return(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// PayFine godoc
//
//	@Summary	Settle the fine on a returned borrowing
//	@Tags		borrowings
//	@Accept		json
//	@Produce	json
//	@Param		request	body	PayFineReq	true	"payment method"
//	@Security	BearerAuth
//	@Router		/v1/borrowings/{id}/pay-fine [patch]
func (h *Controller) PayFine(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req PayFineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "method must be CASH or ONLINE"})
	}
	out, err := h.Svc.PayFine(c.Request().Context(), userID, isStaff(c), id, req.Method, req.PayerEmail)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/borrowings/:id
func (h *Controller) ByID(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.ByID(c.Request().Context(), userID, isStaff(c), id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// GET /v1/borrowings/my-borrowings
func (h *Controller) Mine(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.Mine(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/active
func (h *Controller) Active(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.Active(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/history
func (h *Controller) History(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.History(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings  (staff)
func (h *Controller) All(c echo.Context) error {
	rows, err := h.Svc.All(c.Request().Context())
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/dashboard
func (h *Controller) Dashboard(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	stats, err := h.Svc.Dashboard(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Controller) coded(c echo.Context, err error) error {
	switch bsvc.Code(err) {
	case bsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
	case bsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "not your borrowing"})
	case bsvc.ErrNotActive:
		return c.JSON(http.StatusConflict, echo.Map{"message": "borrowing already returned"})
	case bsvc.ErrExtensionNotAllowed:
		return c.JSON(http.StatusConflict, echo.Map{"message": "extension not allowed"})
	case bsvc.ErrNoFineDue:
		return c.JSON(http.StatusConflict, echo.Map{"message": "no unpaid fine on this borrowing"})
	default:
		h.Log.Error("borrowing error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func isStaff(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleLibrarian || role == model.RoleAdmin
}
