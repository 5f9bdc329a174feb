package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/kasamaeats/kasama-backend/internal/events"
	"github.com/kasamaeats/kasama-backend/internal/modules/address"
	"github.com/kasamaeats/kasama-backend/internal/modules/auth"
	"github.com/kasamaeats/kasama-backend/internal/modules/cart"
	"github.com/kasamaeats/kasama-backend/internal/modules/checkout"
	"github.com/kasamaeats/kasama-backend/internal/modules/order"
	"github.com/kasamaeats/kasama-backend/internal/modules/payment"
	"github.com/kasamaeats/kasama-backend/internal/modules/user"
	"github.com/kasamaeats/kasama-backend/internal/modules/vendor"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer redisClient.Close()

	var publisher events.Publisher = events.NewNopPublisher()
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		rabbit, err := events.NewRabbitPublisher(amqpURL)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Phase 1: Identity ───────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userRepo)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Phase 2: Vendors & Menus ────────────────────────────
	vendorRepo := vendor.NewPostgresRepository(db)
	menuRepo := vendor.NewMenuPostgresRepository(db)
	vendorService := vendor.NewService(vendorRepo, menuRepo)
	vendor.NewHandler(vendorService).RegisterRoutes(router)

	// ── Phase 3: Addresses ──────────────────────────────────
	addressRepo := address.NewPostgresRepository(db)
	addressService := address.NewService(addressRepo)
	address.NewHandler(addressService).RegisterRoutes(router)

	// ── Phase 4: Cart ───────────────────────────────────────
	cartRepo := cart.NewRedisRepository(redisClient)
	cartService := cart.NewService(cartRepo, vendorService)
	cart.NewHandler(cartService).RegisterRoutes(router)

	// ── Phase 5: Orders ─────────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, publisher)
	order.NewHandler(orderService, vendorService).RegisterRoutes(router)

	// ── Phase 6: Pluggable Payments ─────────────────────────
	paymentGateways := payment.GatewayRegistry{
		payment.ProviderMTNMomo: payment.NewMTNMomoGateway(
			os.Getenv("MTN_MOMO_API_KEY"),
			os.Getenv("MTN_MOMO_API_SECRET"),
			os.Getenv("MTN_MOMO_BASE_URL"),
			os.Getenv("MTN_MOMO_ENV"),
		),
		payment.ProviderAirtel: payment.NewAirtelMoneyGateway(
			os.Getenv("AIRTEL_CLIENT_ID"),
			os.Getenv("AIRTEL_CLIENT_SECRET"),
			os.Getenv("AIRTEL_BASE_URL"),
			os.Getenv("AIRTEL_ENV"),
		),
	}
	paymentRepo := payment.NewPostgresRepository(db)
	paymentService := payment.NewService(paymentRepo, paymentGateways)
	payment.NewHandler(paymentService).RegisterRoutes(router)

	// ── Phase 7: Checkout ───────────────────────────────────
	quoteStore := checkout.NewRedisQuoteStore(redisClient)
	checkoutService := checkout.NewService(
		cartService,
		addressService,
		vendorService,
		paymentService,
		orderService,
		quoteStore,
	)
	checkout.NewHandler(checkoutService).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Kasama Eats API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
