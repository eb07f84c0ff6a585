package main

import (
	"log"

	"go-careers-scraper/internal/api"
	"go-careers-scraper/internal/config"
	"go-careers-scraper/internal/dedup"
)

func main() {
	cfg := config.Load()

	store := dedup.NewStore(cfg.StorePath)
	r := api.NewRouter(api.NewHandler(store))

	log.Printf("Server listening on port %s (store: %s)", cfg.ServerPort, store.Path())
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
