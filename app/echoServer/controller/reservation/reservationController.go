package reservation

import (
	"log/slog"
	"net/http"

	"booknest/model"
	rsvc "booknest/service/reservation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc        rsvc.Service
	V          *validator.Validate
	Log        *slog.Logger
	FinePerDay float64
}

// Submit godoc
//
//	@Summary	Create a reservation from the selected books
//	@Tags		reservations
//	@Accept		json
//	@Produce	json
//	@Param		request	body	SubmitReq	true	"reservation payload"
//	@Security	BearerAuth
//	@Router		/v1/reservations [post]
func (h *Controller) Submit(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	var req SubmitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error"})
	}

	sreq := rsvc.SubmitReq{PickupDate: req.PickupDate, Notes: req.Notes}
	for _, it := range req.Items {
		sreq.Items = append(sreq.Items, rsvc.SubmitItem{
			BookID:            it.BookID,
			BorrowingDuration: it.BorrowingDuration,
		})
	}

	rsv, err := h.Svc.Submit(c.Request().Context(), userID, sreq)
	if err != nil {
		if ve := rsvc.AsValidation(err); ve != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": ve.Fields})
		}
		return h.coded(c, err)
	}
	return c.JSON(http.StatusCreated, rsv)
}

// PATCH /v1/reservations/:id/confirm
func (h *Controller) Confirm(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rsv, err := h.Svc.Confirm(c.Request().Context(), userID, id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// PATCH /v1/reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rsv, err := h.Svc.Cancel(c.Request().Context(), userID, isStaff(c), id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// PATCH /v1/reservations/:id/pickup  (staff)
func (h *Controller) MarkPickedUp(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rsv, err := h.Svc.MarkPickedUp(c.Request().Context(), id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// GET /v1/reservations/verify-token?token=  (staff)
func (h *Controller) VerifyToken(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "token is required"})
	}
	rsv, err := h.Svc.VerifyPickupToken(c.Request().Context(), token)
	if err != nil {
		if rsvc.Code(err) == rsvc.ErrBadToken {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid pickup token"})
		}
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// GET /v1/reservations/:id
func (h *Controller) ByID(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rsv, err := h.Svc.ByID(c.Request().Context(), userID, isStaff(c), id)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// GET /v1/reservations/by-number/:number  (staff)
func (h *Controller) ByNumber(c echo.Context) error {
	rsv, err := h.Svc.ByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// GET /v1/reservations/my-reservations
func (h *Controller) Mine(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.Mine(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reservations/active
func (h *Controller) Active(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.Active(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reservations/history
func (h *Controller) History(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.History(c.Request().Context(), userID)
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reservations?status=  (staff)
func (h *Controller) All(c echo.Context) error {
	rows, err := h.Svc.All(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return h.coded(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reservations/policy
func (h *Controller) Policy(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"max_books_per_reservation": model.MaxBooksPerReservation,
		"min_pickup_hours":          model.MinPickupHours,
		"borrowing_durations":       model.BorrowingDurations,
		"extension_days":            model.ExtensionDays,
		"fine_per_day":              h.FinePerDay,
	})
}

func (h *Controller) coded(c echo.Context, err error) error {
	switch rsvc.Code(err) {
	case rsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
	case rsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "not your reservation"})
	case rsvc.ErrNoStock:
		return c.JSON(http.StatusConflict, echo.Map{"message": "no copy available for one of the books"})
	case rsvc.ErrInvalidTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "reservation state does not allow this"})
	default:
		h.Log.Error("reservation error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func isStaff(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleLibrarian || role == model.RoleAdmin
}
