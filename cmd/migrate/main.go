package main

import (
	"flag"
	"log"

	"challenge-server/internal/config"
	"challenge-server/internal/database"
)

func main() {
	source := flag.String("source", "file://db/migrations", "migration source URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	if err := database.Migrate(*source, cfg.DB.Source); err != nil {
		log.Fatal(err)
	}
	log.Println("database migrations applied")
}
