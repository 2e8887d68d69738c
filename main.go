package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aerocomidas/restaurant-pos/cache"
	"github.com/aerocomidas/restaurant-pos/config"
	"github.com/aerocomidas/restaurant-pos/database"
	"github.com/aerocomidas/restaurant-pos/router"
	"github.com/aerocomidas/restaurant-pos/utils"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()
	utils.InitJWT()

	db, err := cfg.OpenDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}

	var cacheClient *cache.Client
	if cfg.RedisURL != "" {
		cacheClient, err = cache.Initialize(cfg.RedisURL, time.Duration(cfg.CacheTTLSeconds)*time.Second)
		if err != nil {
			utils.ErrorLogger.Printf("Analytics cache disabled: %v", err)
			cacheClient = nil
		}
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.SetupRouter(db, cacheClient, cfg.PaymentWebhookSecret)

	utils.InfoLogger.Printf("Listening on port %s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
