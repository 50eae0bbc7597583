package main

import (
	"flag"
	"fmt"
	"log"

	"deepchat-backend/config"
	"deepchat-backend/controller"
	"deepchat-backend/dao"
	"deepchat-backend/logic"
	"deepchat-backend/middleware"
	"deepchat-backend/models"
	"deepchat-backend/pkg"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env if present; secrets may also come from the real environment
	if err := godotenv.Load(*envFile); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load config from %s: %v", *configPath, err)
	}
	cfg := &config.GlobalConfig

	logger := pkg.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting deepchat backend...")

	// Initialize database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	if err := db.AutoMigrate(&models.Chat{}, &models.Message{}, &models.Attachment{}, &models.User{}); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	stripe.Key = cfg.Stripe.SecretKey

	// Initialize vendor clients
	var memoryClient *pkg.MemoryClient
	if cfg.Memory.APIKey != "" {
		memoryClient = pkg.NewMemoryClient(cfg.Memory.BaseURL, cfg.Memory.APIKey)
	}
	var searchClient *pkg.SearchClient
	if cfg.Search.APIKey != "" {
		searchClient = pkg.NewSearchClient(cfg.Search.BaseURL, cfg.Search.APIKey)
	}
	cloudinaryClient := pkg.NewCloudinaryClient(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
	)

	// Initialize DAOs
	chatDAO := dao.NewChatDAO(db)
	userDAO := dao.NewUserDAO(db)

	// Memory cache backend: in-process by default, redis when configured
	var memoryStore logic.MemoryStore
	if cfg.Memory.Backend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Memory.Redis.Addr,
			Password: cfg.Memory.Redis.Password,
			DB:       cfg.Memory.Redis.DB,
		})
		memoryStore = logic.NewRedisStore(redisClient, cfg.Memory.TTL.Std())
		logger.WithField("addr", cfg.Memory.Redis.Addr).Info("Using redis memory cache")
	} else {
		memoryStore = logic.NewLocalStore(cfg.Memory.TTL.Std())
	}

	// Initialize logic
	var memorySearcher logic.MemorySearcher
	var memoryWriter logic.MemoryWriter
	if memoryClient != nil {
		memorySearcher = memoryClient
		memoryWriter = memoryClient
	}
	memoryCache := logic.NewMemoryCache(memoryStore, memorySearcher, cfg.Memory.Limit, logger)
	searchLogic := logic.NewSearchLogic(searchClient, cfg.Search.MaxResults, logger)
	resolver := logic.NewModelResolver(logic.ResolverConfig{
		DefaultKey:      cfg.Models.Default,
		DefaultBaseURL:  cfg.Models.DefaultBaseURL,
		DefaultAPIKey:   cfg.Models.DefaultAPIKey,
		DefaultModel:    cfg.Models.DefaultModel,
		ExternalPrefix:  cfg.Models.ExternalPrefix,
		ExternalBaseURL: cfg.Models.ExternalBaseURL,
	}, logger)
	checkpoints := logic.NewCheckpointWriter(chatDAO, logger)
	orchestrator := logic.NewOrchestrator(
		chatDAO,
		checkpoints,
		memoryWriter,
		cfg.Chat.StreamTimeout.Std(),
		cfg.Chat.CheckpointChars,
		logger,
	)
	chatLogic := logic.NewChatLogic(chatDAO, memoryCache, searchLogic, resolver, orchestrator, logger)
	billingLogic := logic.NewBillingLogic(userDAO, logger)

	// Initialize controllers
	chatCtrl := controller.NewChatController(chatLogic, logger)
	authCtrl := controller.NewAuthController(
		cfg.Auth.ServiceURL,
		cfg.Auth.CookieDomain,
		cfg.Auth.CookieSecure,
		userDAO,
		logger,
	)
	filesCtrl := controller.NewFilesController(cloudinaryClient, pkg.FetchPDFText, resolver, logger)
	billingCtrl := controller.NewBillingController(billingLogic, controller.BillingConfig{
		WebhookSecret: cfg.Stripe.WebhookSecret,
		PriceMonthly:  cfg.Stripe.PriceMonthly,
		PriceYearly:   cfg.Stripe.PriceYearly,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	}, logger)

	// Setup Gin router
	r := gin.Default()
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", middleware.MetricsHandler())
	}
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", authCtrl.Login)
	r.POST("/auth/signup", authCtrl.Signup)
	r.POST("/auth/logout", authCtrl.Logout)
	r.POST("/billing/webhook", billingCtrl.Webhook)

	r.POST("/chat", middleware.Auth, chatCtrl.Chat)
	r.POST("/chat/create", middleware.Auth, chatCtrl.CreateChat)
	r.GET("/chat/:id", middleware.Auth, chatCtrl.GetChat)
	r.DELETE("/chat/:id", middleware.Auth, chatCtrl.DeleteChat)
	r.GET("/chats", middleware.Auth, chatCtrl.ListChats)
	r.POST("/files/delete", middleware.Auth, filesCtrl.DeleteFile)
	r.POST("/pdf/analyze", middleware.Auth, filesCtrl.AnalyzePDF)
	r.GET("/billing/subscription", middleware.Auth, billingCtrl.GetSubscription)
	r.POST("/billing/checkout", middleware.Auth, billingCtrl.CreateCheckout)

	// Run server
	if err := r.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.WithError(err).Fatal("Failed to run server")
	}
}
