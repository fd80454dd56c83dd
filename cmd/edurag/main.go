package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"edurag/internal/cli"
)

func init() {
	loadEnvVariables()
}

func main() {
	cli.Execute()
}

// loadEnvVariables reads .env when present. Real environment variables win.
func loadEnvVariables() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("Error loading .env file: ", err)
	}
}
