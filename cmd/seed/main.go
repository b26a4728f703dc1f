// Command main runs the database seeder for the Inkwell blog.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numPosts := flag.Int("posts", 50, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean posts and images before seeding")
	flag.Parse()

	_ = godotenv.Load()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{NumPosts: *numPosts, ShouldClean: *shouldClean}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo posts.")
}
