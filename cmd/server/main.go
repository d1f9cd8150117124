package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"event-registration-platform/internal/config"
	"event-registration-platform/internal/database"
	"event-registration-platform/internal/handlers"
	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/notifications"
	"event-registration-platform/internal/repositories"
	"event-registration-platform/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database connection
	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	if err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Create session store
	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Server.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db.DB)
	eventRepo := repositories.NewEventRepository(db.DB)
	productRepo := repositories.NewProductRepository(db.DB)
	registrationRepo := repositories.NewRegistrationRepository(db.DB)
	orderRepo := repositories.NewOrderRepository(db.DB)
	certRepo := repositories.NewCertificateRepository(db.DB)

	// Email service
	emailService := services.NewResendEmailService(cfg.Resend)

	// Notification queue; optional in development
	zlogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var publisher services.Publisher
	var worker *notifications.Worker
	if cfg.Rabbit.URL != "" {
		rabbit, err := notifications.NewClient(cfg.Rabbit, zlogger)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		defer rabbit.Close()
		publisher = rabbit

		worker = notifications.NewWorker(rabbit, emailService, zlogger)
		worker.Start(context.Background())
		defer worker.Stop()
	} else {
		log.Println("RABBIT_URL not set, notifications disabled")
	}

	// Document storage; in-memory fallback in development
	baseURL := fmt.Sprintf("http://%s:%s", cfg.Server.Host, cfg.Server.Port)
	var storage services.StorageService
	if cfg.R2.AccessKeyID != "" {
		storage, err = services.NewR2Service(cfg.R2)
		if err != nil {
			log.Fatal("Failed to initialize R2 storage:", err)
		}
	} else {
		log.Println("R2 credentials not set, using in-memory storage")
		storage = services.NewMemoryStorage(baseURL + "/files")
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.JWT)
	eventService := services.NewEventService(eventRepo)
	productService := services.NewProductService(productRepo, eventRepo)
	registrationService := services.NewRegistrationService(registrationRepo, eventRepo, publisher)
	orderService := services.NewOrderService(orderRepo, registrationRepo, eventRepo, userRepo, publisher)
	pdfService := services.NewPDFService()
	certService := services.NewCertificateService(certRepo, registrationRepo, eventRepo, pdfService, storage, publisher, baseURL)

	// Initialize middleware and handlers
	authMW := middleware.NewAuthMiddleware(authService, userRepo, sessionStore)

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:          handlers.NewAuthHandler(authService, sessionStore),
		Events:        handlers.NewEventHandler(eventService),
		Products:      handlers.NewProductHandler(productService),
		Registrations: handlers.NewRegistrationHandler(registrationService, orderService),
		Orders:        handlers.NewOrderHandler(orderService),
		Certificates:  handlers.NewCertificateHandler(certService, pdfService),
		AuthMW:        authMW,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown:", err)
	}

	log.Println("Server stopped")
}
