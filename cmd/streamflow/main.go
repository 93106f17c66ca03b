// Package main is the entry point for the StreamFlow relay.
package main

import (
	"log"
	"os"

	"github.com/KiNGTV2025/xdert/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	defer application.Shutdown()

	if err := application.Run(); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}
