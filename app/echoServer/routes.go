package echoServer

import (
	"net/http"

	"booknest/app/echoServer/controller/auth"
	"booknest/app/echoServer/controller/book"
	"booknest/app/echoServer/controller/borrowing"
	"booknest/app/echoServer/controller/cart"
	"booknest/app/echoServer/controller/payment"
	"booknest/app/echoServer/controller/reservation"
	"booknest/app/echoServer/controller/wishlist"
	"booknest/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth        *auth.Controller
	Book        *book.Controller
	Cart        *cart.Controller
	Reservation *reservation.Controller
	Borrowing   *borrowing.Controller
	Wishlist    *wishlist.Controller
	Payment     *payment.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)
	pub.GET("/reservations/policy", c.Reservation.Policy)

	// payment gateway webhook
	pub.POST("/payment/xendit", c.Payment.HandleXendit)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	authed.Use(extractClaims())

	// Books
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)

	// Cart
	authed.GET("/cart", c.Cart.Get)
	authed.POST("/cart/items", c.Cart.Add)
	authed.PATCH("/cart/items/:bookId", c.Cart.Update)
	authed.DELETE("/cart/items/:bookId", c.Cart.Remove)
	authed.DELETE("/cart", c.Cart.Clear)

	// Reservations
	authed.POST("/reservations", c.Reservation.Submit)
	authed.GET("/reservations/my-reservations", c.Reservation.Mine)
	authed.GET("/reservations/active", c.Reservation.Active)
	authed.GET("/reservations/history", c.Reservation.History)
	authed.GET("/reservations/:id", c.Reservation.ByID)
	authed.PATCH("/reservations/:id/confirm", c.Reservation.Confirm)
	authed.PATCH("/reservations/:id/cancel", c.Reservation.Cancel)

	// Borrowings
	authed.GET("/borrowings/my-borrowings", c.Borrowing.Mine)
	authed.GET("/borrowings/active", c.Borrowing.Active)
	authed.GET("/borrowings/history", c.Borrowing.History)
	authed.GET("/borrowings/dashboard", c.Borrowing.Dashboard)
	authed.GET("/borrowings/:id", c.Borrowing.ByID)
	authed.PATCH("/borrowings/:id/extend", c.Borrowing.Extend)
	authed.PATCH("/borrowings/:id/pay-fine", c.Borrowing.PayFine)

	// Wishlist
	authed.GET("/wishlist", c.Wishlist.List)
	authed.POST("/wishlist", c.Wishlist.Add)
	authed.GET("/wishlist/check/:bookId", c.Wishlist.Check)
	authed.DELETE("/wishlist/book/:bookId", c.Wishlist.RemoveByBook)
	authed.DELETE("/wishlist/:id", c.Wishlist.RemoveByID)
	authed.PATCH("/wishlist/:id", c.Wishlist.Update)
	authed.DELETE("/wishlist", c.Wishlist.Clear)

	// Librarian/admin desk
	staff := authed.Group("", RequireStaff())
	staff.POST("/books", c.Book.Create)
	staff.POST("/books/:id/copies", c.Book.AddCopies)
	staff.PATCH("/books/copies/:copyId/status", c.Book.SetCopyStatus)
	staff.GET("/reservations", c.Reservation.All)
	staff.GET("/reservations/by-number/:number", c.Reservation.ByNumber)
	staff.GET("/reservations/verify-token", c.Reservation.VerifyToken)
	staff.PATCH("/reservations/:id/pickup", c.Reservation.MarkPickedUp)
	staff.GET("/borrowings", c.Borrowing.All)
	staff.PATCH("/borrowings/:id/return", c.Borrowing.Return)
}

// extractClaims lifts user_id and role out of the verified token so
// handlers can read them without touching jwt types.
func extractClaims() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			if role, err := jwtx.RoleFromContext(ctx); err == nil {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	}
}
