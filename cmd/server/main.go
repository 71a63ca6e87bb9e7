package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/music-streaming-system/internal/auth"
	"github.com/music-streaming-system/internal/library"
	"github.com/music-streaming-system/internal/search"
	"github.com/music-streaming-system/internal/ws"
	"github.com/music-streaming-system/pkg/database"
	"github.com/music-streaming-system/pkg/events"
	"github.com/music-streaming-system/pkg/redis"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found")
	}

	production := os.Getenv("ENV") == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Storage: MySQL when configured, in-memory otherwise
	var storage library.Storage
	if os.Getenv("MYSQL_HOST") != "" {
		db, err := database.NewMySQLDB(
			os.Getenv("MYSQL_HOST"),
			os.Getenv("MYSQL_PORT"),
			os.Getenv("MYSQL_USER"),
			os.Getenv("MYSQL_PASSWORD"),
			os.Getenv("MYSQL_DATABASE"),
		)
		if err != nil {
			log.Fatal("failed to connect to database", "err", err)
		}
		storage = db
	} else {
		log.Warn("MYSQL_HOST not set, using in-memory storage")
		storage = library.NewMemStorage()
	}

	// Sessions and cache: Redis when configured
	var redisClient *goredis.Client
	var sessions redis.SessionStore
	if os.Getenv("REDIS_HOST") != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     os.Getenv("REDIS_HOST") + ":" + os.Getenv("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		sessions = redis.NewSessionStore(redisClient, 30*24*time.Hour)
	} else {
		log.Warn("REDIS_HOST not set, using in-memory sessions")
		sessions = redis.NewMemSessionStore()
	}

	// Event stream: Kafka when configured
	var publisher events.Publisher
	var stream ws.EventStream
	if os.Getenv("KAFKA_BROKERS") != "" {
		kafkaClient := events.NewKafkaClient(
			strings.Split(os.Getenv("KAFKA_BROKERS"), ","),
			"library-events",
			os.Getenv("KAFKA_GROUP_ID"),
		)
		publisher = kafkaClient
		stream = kafkaClient
	}

	// Initialize services
	libraryService := library.NewService(storage, redisClient, publisher)

	// Initialize handlers
	authHandler := auth.NewHandler(libraryService, sessions, production)
	libraryHandler := library.NewHandler(libraryService)
	wsHandler := ws.NewHandler(stream, libraryService)

	// Initialize Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", os.Getenv("FRONTEND_URL")},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := router.Group("/api")

	// Public routes
	authHandler.RegisterRoutes(api)
	libraryHandler.RegisterPublicRoutes(api)

	if apiKey := os.Getenv("YOUTUBE_API_KEY"); apiKey != "" {
		searchHandler := search.NewHandler(search.NewClient(apiKey))
		searchHandler.RegisterRoutes(api)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(auth.SessionMiddleware(sessions))
	{
		libraryHandler.RegisterProtectedRoutes(protected)

		// WebSocket endpoint
		protected.GET("/ws", wsHandler.HandleWebSocket)
	}

	// Serve frontend static files and SPA fallback
	router.NoRoute(func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		// Prevent directory traversal
		cleanPath := filepath.Clean(reqPath)
		filePath := filepath.Join("frontend/dist", cleanPath)
		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			c.File(filePath)
		} else {
			// Fallback to index.html for client-side routing
			c.File("frontend/dist/index.html")
		}
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("server starting", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("failed to start server", "err", err)
	}
}
