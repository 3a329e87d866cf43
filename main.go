// Package main BookNest API.
//
// @title           BookNest API
// @version         1.0
// @description     library reservation and borrowing service (catalog, cart, reservations, borrowings, wishlist, fines).
// @contact.name    Halim Iskandar
// @contact.email   halim.iskandar2323@gmail.com
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"booknest/app/echoServer"
	authctrl "booknest/app/echoServer/controller/auth"
	bookctrl "booknest/app/echoServer/controller/book"
	borrowingctrl "booknest/app/echoServer/controller/borrowing"
	cartctrl "booknest/app/echoServer/controller/cart"
	paymentctrl "booknest/app/echoServer/controller/payment"
	reservationctrl "booknest/app/echoServer/controller/reservation"
	wishlistctrl "booknest/app/echoServer/controller/wishlist"
	"booknest/app/echoServer/validation"
	"booknest/config"
	bookrepo "booknest/repository/book"
	borrowingrepo "booknest/repository/borrowing"
	cartrepo "booknest/repository/cart"
	reservationrepo "booknest/repository/reservation"
	userrepo "booknest/repository/user"
	wishlistrepo "booknest/repository/wishlist"
	xenditrepo "booknest/repository/xendit"
	authsvc "booknest/service/auth"
	booksvc "booknest/service/book"
	borrowingsvc "booknest/service/borrowing"
	cartsvc "booknest/service/cart"
	paymentsvc "booknest/service/payment"
	reservationsvc "booknest/service/reservation"
	wishlistsvc "booknest/service/wishlist"
	"booknest/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	cr := cartrepo.New(db)
	rr := reservationrepo.New(db)
	bwr := borrowingrepo.New(db)
	wr := wishlistrepo.New(db)
	xr := xenditrepo.NewHTTP(cfg.XenditAPIKey, cfg.XenditCBToken)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	cs := cartsvc.New(cr, log)
	rs := reservationsvc.New(db, rr, bwr, cr, cfg.JWTSecret)
	bws := borrowingsvc.New(db, bwr, xr, cfg.FinePerDay)
	ws := wishlistsvc.New(wr)
	ps := paymentsvc.New(db, xr, bwr)

	// expired PENDING reservations are swept in the background
	cleaner := reservationsvc.NewCleaner(rs, rr, log, cfg.ExpiryDays, time.Hour)
	cleaner.Start(ctx)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	cartC := &cartctrl.Controller{Svc: cs, V: v, Log: log}
	reservationC := &reservationctrl.Controller{Svc: rs, V: v, Log: log, FinePerDay: cfg.FinePerDay}
	borrowingC := &borrowingctrl.Controller{Svc: bws, V: v, Log: log}
	wishlistC := &wishlistctrl.Controller{Svc: ws, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		Book:        bookC,
		Cart:        cartC,
		Reservation: reservationC,
		Borrowing:   borrowingC,
		Wishlist:    wishlistC,
		Payment:     paymentC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
