package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/grocerydev/grocery-shop/internal/app"
	"github.com/grocerydev/grocery-shop/internal/app/handlers"
	"github.com/grocerydev/grocery-shop/internal/config"
	"github.com/grocerydev/grocery-shop/internal/lib/logger"
	"github.com/grocerydev/grocery-shop/internal/lib/logger/handlers/reqlog"
	"github.com/grocerydev/grocery-shop/internal/security/authmw"
	"github.com/grocerydev/grocery-shop/internal/service"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(reqlog.Middleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	paymentRepo := storage.NewPaymentMethodRepository(application.DB)
	cartKV := storage.NewCartKVRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	productService := service.NewProductService(application.Logger, productRepo)
	cartService := service.NewCartService(application.Logger, cartKV, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, userRepo, productRepo, orderRepo, paymentRepo)

	keyPrefix := cfg.Cart.KeyPrefix

	router.Post("/api/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/login", handlers.LoginHandler(application.Logger, authService))

	// catalog browsing is open
	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, productService))
	router.Get("/api/products/{id}", handlers.GetProductHandler(application.Logger, productService))
	router.Get("/api/payment-methods", handlers.ListPaymentMethodsHandler(application.Logger, orderService))

	router.Group(func(r chi.Router) {
		jwtMW := authmw.New()
		r.Use(jwtMW)

		r.Post("/api/products", handlers.CreateProductHandler(application.Logger, productService))
		r.Put("/api/products/{id}", handlers.UpdateProductHandler(application.Logger, productService))
		r.Delete("/api/products/{id}", handlers.DeleteProductHandler(application.Logger, productService))

		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService, keyPrefix))
		r.Post("/api/cart", handlers.AddToCartHandler(application.Logger, cartService, keyPrefix))
		r.Put("/api/cart", handlers.ReplaceCartHandler(application.Logger, cartService, keyPrefix))
		r.Delete("/api/cart", handlers.ClearCartHandler(application.Logger, cartService, keyPrefix))
		r.Delete("/api/cart/{productID}", handlers.RemoveCartItemHandler(application.Logger, cartService, keyPrefix))

		r.Post("/api/checkout", handlers.CheckoutHandler(application.Logger, orderService, cartService, keyPrefix))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
