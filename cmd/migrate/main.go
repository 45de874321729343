package main

import (
	"log"
	"os"

	"rag-pipeline-be/pkg/database"
	"rag-pipeline-be/pkg/vectordb/pgvector"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, database.Options{})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	// 3. Relational tables
	log.Println("Step 1: Running AutoMigrate for projects and chunks...")
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Vector store (postgres only)
	if database.IsSQLiteDSN(dsn) {
		log.Println("Step 2: Skipping pgvector setup for sqlite")
	} else {
		log.Println("Step 2: Installing pgvector extension and collection tables...")
		if err := pgvector.Migrate(db); err != nil {
			log.Fatalf("Error: pgvector migration failed: %v", err)
		}
	}

	log.Println("Migration completed successfully")
}
