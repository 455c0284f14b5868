package main

import (
	"log"

	_ "integration-gateway/docs"
	"integration-gateway/internal/app"
)

// @title Integration Gateway API
// @version 1.0
// @description Executes or queues generic outbound HTTP calls with fingerprint keyed response caching.
// @BasePath /
func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
