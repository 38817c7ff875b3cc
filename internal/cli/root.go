// Package cli implements the memory-vault CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rcliao/memory-vault/internal/config"
	"github.com/rcliao/memory-vault/internal/vault"
	"github.com/spf13/cobra"
)

var (
	dirFlag     string
	backendFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-vault",
	Short: "Progressive-disclosure semantic memory for AI agents",
	Long: "A semantic memory store for autonomous agents: markdown chunking, " +
		"vector search with summary-first disclosure, consolidation, and decay pruning.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Vault directory (default: $MEMORY_VAULT_DIR or resolved from workspace)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Vector index backend: chromem or sqlite")
}

func loadConfig() (config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	home, _ := os.UserHomeDir()

	cfg, err := config.Load(os.Getenv, cwd, home)
	if err != nil {
		return cfg, err
	}
	if dirFlag != "" {
		cfg.Dir = dirFlag
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	return cfg, nil
}

func openVault() (*vault.Store, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	s, err := vault.Open(cfg)
	return s, cfg, err
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
