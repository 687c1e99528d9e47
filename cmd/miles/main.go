// Package main provides the miles CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/mesh-intelligence/miles/internal/cli"
)

func main() {
	// A missing .env is fine; variables already set take precedence.
	_ = godotenv.Load()
	cli.Execute()
}
