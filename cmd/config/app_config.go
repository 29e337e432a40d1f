package config

import (
	"Hogar-Backend/internal/api/handlers"
	"Hogar-Backend/internal/api/routes"
	"Hogar-Backend/internal/middleware"
	"Hogar-Backend/internal/utils"
	"Hogar-Backend/internal/utils/cache"
	"Hogar-Backend/internal/utils/storage"
	"Hogar-Backend/pkg/catalog"
	"Hogar-Backend/pkg/extraction"
	"Hogar-Backend/pkg/receipt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         15 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "America/Santiago",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	extractor := extraction.NewGeminiExtractor(
		utils.GetConfig("GEMINI_API_KEY"),
		utils.GetConfig("GEMINI_MODEL"),
		utils.GetConfig("GEMINI_FALLBACK_MODEL"),
	)
	receiptListCache := cache.New(60 * time.Second)

	// Repository
	catalogRepository := catalog.NewCatalogRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)

	// Service
	catalogService := catalog.NewCatalogService(catalogRepository)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		catalogService,
		extractor,
		s3,
		receiptListCache,
	)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	catalogHandler := handlers.NewCatalogHandler(catalogService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		ReceiptHandler: receiptHandler,
		CatalogHandler: catalogHandler,
		Middleware:     middlewares,
	}
	routesConfig.Setup()
	return app, nil
}
