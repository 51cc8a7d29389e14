package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/chantabs/internal/app"
)

func main() {
	// Local development reads a .env file; deployments set the environment.
	_ = godotenv.Load()

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ chantabs failed to start: %v", err)
	}
}
