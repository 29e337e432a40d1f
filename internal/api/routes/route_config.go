package routes

import (
	"Hogar-Backend/internal/api/handlers"
	"Hogar-Backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App            *fiber.App
	ReceiptHandler handlers.ReceiptHandler
	CatalogHandler handlers.CatalogHandler
	Middleware     middleware.Middleware
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Receipts()
	c.Catalog()
	c.Jobs()
	c.GuestRoute()
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.HouseholdMiddleware())
	{
		receipts.Post("", c.ReceiptHandler.UploadReceipt)
		receipts.Get("", c.ReceiptHandler.ListReceipts)
		receipts.Post("/manual", c.ReceiptHandler.CreateManualReceipt)
		receipts.Get("/:id", c.ReceiptHandler.GetReceipt)
		receipts.Post("/:id/confirm", c.ReceiptHandler.ConfirmReceipt)
		receipts.Post("/:id/reject", c.ReceiptHandler.RejectReceipt)
	}
}

func (c *Config) Catalog() {
	catalog := c.App.Group("/api/v1/catalog", c.Middleware.HouseholdMiddleware())
	{
		catalog.Get("/stores", c.CatalogHandler.ListStores)
		catalog.Patch("/stores/:id/aliases", c.CatalogHandler.UpdateStoreAliases)
		catalog.Get("/products", c.CatalogHandler.ListProducts)
		catalog.Patch("/products/:id", c.CatalogHandler.UpdateProduct)
		catalog.Get("/products/:id/prices", c.CatalogHandler.GetProductPrices)
	}
}

// Jobs are scheduler-triggered maintenance endpoints; they run across
// all households and sit outside the household scope.
func (c *Config) Jobs() {
	jobs := c.App.Group("/api/v1/jobs")
	jobs.Post("/process-receipts", c.ReceiptHandler.ProcessUploadedReceipts)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
