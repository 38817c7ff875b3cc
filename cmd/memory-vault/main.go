package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/rcliao/memory-vault/internal/cli"
)

func main() {
	// Best-effort .env loading before config resolution.
	_ = godotenv.Load()

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
