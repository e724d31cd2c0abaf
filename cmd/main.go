package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/talentcopilot/backend/internal/app"
)

func main() {
	// godotenv.Load does not overwrite variables already in the
	// environment, so container config always wins over .env.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Fatal("Failed to start background workers", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	a.Log.Info("Starting server", "port", port)
	if err := a.Run(":" + port); err != nil {
		a.Log.Fatal("Server exited", "error", err)
	}
}
