package client

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-checkout/internal/model"
)

func InitSqliteClient(databaseURL string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&model.Product{},
		&model.CheckoutSession{},
	); err != nil {
		log.Fatal(err)
	}

	return db
}
