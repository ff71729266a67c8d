package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	_ "credito/api/swagger" // swagger docs
	"credito/internal/bureau"
	"credito/internal/database"
	"credito/internal/document"
	"credito/internal/handler"
	"credito/internal/middleware"
	"credito/internal/repository"
	"credito/internal/service"
	"credito/internal/websocket"
	"credito/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// envDuration reads a millisecond env var with a fallback
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		log.Printf("Ignoring invalid %s=%q", key, raw)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// @title           Credito API
// @version         1.0
// @description     Credit origination workflow: preliminary applications, bureau checks, formal applications and contracts.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "credito"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	if err := database.SeedRolesAndPermissions(context.Background(), db); err != nil {
		log.Fatalf("Failed to seed roles and permissions: %v", err)
	}

	middleware.InitPermissionMiddleware(db)

	// WebSocket hub for targeted notification delivery
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	preliminaryRepo := repository.NewPreliminaryRepository(db)
	formalRepo := repository.NewFormalRepository(db)
	contractRepo := repository.NewContractRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Domain collaborators
	creditBureau := bureau.NewSimulatedBureau(envDuration("BUREAU_LATENCY_MS", 300*time.Millisecond))
	pdfRenderer := document.NewPDFRenderer()

	// Services
	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	permChecker := service.NewPermissionChecker(userRepo, roleRepo)
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	preliminaryService := service.NewPreliminaryService(preliminaryRepo, formalRepo, contractRepo, creditBureau, notificationService, auditService, txManager)
	formalService := service.NewFormalService(formalRepo, preliminaryRepo, userRepo, permChecker, notificationService, auditService, txManager)
	contractService := service.NewContractService(contractRepo, formalRepo, preliminaryRepo, userRepo, pdfRenderer, notificationService, auditService, txManager)

	// Notification outbox dispatcher
	dispatcher := worker.NewDispatcher(notificationRepo, wsHub, envDuration("NOTIFY_POLL_MS", 2*time.Second))
	go dispatcher.Run(context.Background())

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	preliminaryHandler := handler.NewPreliminaryHandler(preliminaryService)
	formalHandler := handler.NewFormalHandler(formalService)
	contractHandler := handler.NewContractHandler(contractService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	preliminaryHandler.RegisterRoutes(router.Group(""))
	formalHandler.RegisterRoutes(router.Group(""))
	contractHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
