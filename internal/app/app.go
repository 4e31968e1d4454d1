package app

import (
	"database/sql"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "hooshmetr/docs"
	"hooshmetr/internal/cache"
	"hooshmetr/internal/config"
	"hooshmetr/internal/handlers"
	"hooshmetr/internal/middleware"
	"hooshmetr/internal/repositories"
	"hooshmetr/internal/routes"
	"hooshmetr/internal/services"
	"hooshmetr/internal/utils"
)

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error: ", err)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("db open error: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}()
	if err := db.Ping(); err != nil {
		log.Fatal("db ping error: ", err)
	}

	// === Cache (optional) ===
	var counter services.SendCounter
	if store := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); store != nil {
		defer store.Close()
		counter = store
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)

	// === Services ===
	userService := services.NewUserService(userRepo)
	tokenService := services.NewTokenService(cfg.SecretKey, cfg.AccessTokenDays)

	smsClient := utils.NewTSMSClient(
		cfg.TSMS.Username,
		cfg.TSMS.Password,
		cfg.TSMS.SenderPrimary,
		cfg.TSMS.SenderFallback,
		cfg.TSMS.DryRun,
	)

	otpService := services.NewOTPService(verificationRepo, userService, smsClient, counter)
	otpService.CodeTTL = time.Duration(cfg.OTP.TTLMinutes) * time.Minute
	otpService.MaxAttempts = cfg.OTP.MaxAttempts
	otpService.CodeLength = cfg.OTP.CodeLength
	otpService.MaxSends = cfg.OTP.MaxSendsPerWindow
	otpService.SendWindow = time.Duration(cfg.OTP.SendWindowMinutes) * time.Minute
	otpService.Debug = cfg.Debug

	// periodic cleanup of expired verification rows; superseded rows
	// fall out once past their expiry too
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := verificationRepo.DeleteExpired(time.Now().Add(-24 * time.Hour)); err != nil {
				log.Printf("[otp][cleanup] err=%v", err)
			} else if n > 0 {
				log.Printf("[otp][cleanup] removed %d expired codes", n)
			}
		}
	}()

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(otpService, tokenService)
	userHandler := handlers.NewUserHandler(userService)

	gate := middleware.NewAuthGate(tokenService, userService)
	limiter := middleware.NewRateLimiter()

	// === Gin ===
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(corsMiddleware(cfg.AllowedOrigins()))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, gate, limiter, authHandler, userHandler)

	log.Printf("listening on %s", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal("server error: ", err)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowed) == 0:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
