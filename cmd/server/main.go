package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/parley-chat/parley-backend/internal/config"
	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/handlers"
	"github.com/parley-chat/parley-backend/internal/middleware"
	"github.com/parley-chat/parley-backend/internal/realtime"
	"github.com/parley-chat/parley-backend/internal/routes"
	"github.com/parley-chat/parley-backend/internal/services"
	"github.com/parley-chat/parley-backend/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Check encryption key (warn if not set, but don't fail)
	if cfg.EncryptionKey == "" {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Message encryption will not work.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
	} else if _, err := utils.GetEncryptionKey(); err != nil {
		log.Printf("⚠️  WARNING: ENCRYPTION_KEY is invalid: %v", err)
		log.Println("   Key must be base64-encoded 32 bytes. Generate with: openssl rand -base64 32")
	} else {
		log.Println("✅ Encryption key configured")
	}

	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	log.Printf("Connecting to MongoDB...")
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.DisconnectMongo()

	if err := services.EnsureChatIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB chat indexes: %v", err)
	} else {
		log.Println("✅ MongoDB chat indexes ensured")
	}

	// Attachment uploads
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File and voice note uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	// Realtime coordinator: local hub + Mongo message store + Postgres
	// social store, fanned out across instances over Redis Pub/Sub.
	hub := realtime.NewHub()
	messageService := services.NewMessageService()
	socialService := services.NewSocialService()
	bridge := services.NewEventBridge(hub)
	coordinator := realtime.NewCoordinator(hub, messageService, socialService, bridge)
	coordinator.SetPresenceDirectory(services.PresenceDirectory{})
	bridge.StartEventSubscriber(context.Background())
	handlers.InitRealtime(coordinator, messageService, socialService)
	log.Println("✅ Realtime coordinator started")

	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + history rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Printf("🚀 Parley backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
