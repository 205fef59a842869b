package db

import (
	"log"

	"pdf-extractor-api/internal/document"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&document.Document{},
		&document.PageText{},
		&document.Table{},
		&document.Image{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}
