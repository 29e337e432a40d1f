package migration

import (
	"Hogar-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	models := []interface{}{
		&entities.Household{},
		&entities.Account{},
		&entities.Category{},
		&entities.Store{},
		&entities.Product{},
		&entities.ProductIndexEntry{},
		&entities.ProductPrice{},
		&entities.Receipt{},
		&entities.ReceiptItem{},
		&entities.Transaction{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			log.Fatalf("Error migrating database: %v", err)
			return err
		}
	}

	fmt.Println("Database migration complete")
	return nil
}
