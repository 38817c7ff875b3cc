// Package config resolves the vault directory and settings.
//
// Resolution is a pure function over an environment snapshot (getenv, cwd,
// home) so it can be tested without touching the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// EnvVaultDir overrides all other directory resolution.
	EnvVaultDir = "MEMORY_VAULT_DIR"

	// MarkerFile is the workspace config file, TOML-encoded.
	MarkerFile = ".vault.toml"

	// workspaceVaultDir is a conventional in-workspace data directory.
	workspaceVaultDir = "memory-vault"

	// defaultDirName under the home directory.
	defaultDirName = ".memory-vault"
)

// CoreFiles are the workspace markdown files indexed by default, alongside
// memory/*.md and .learnings/*.md.
var CoreFiles = []string{
	"MEMORY.md", "SOUL.md", "USER.md", "TOOLS.md", "AGENTS.md", "HEARTBEAT.md", "IDENTITY.md",
}

// Embedder holds embedding provider settings.
type Embedder struct {
	Provider string `toml:"provider"` // "ollama" | "openai"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Dims     int    `toml:"dims"`
}

// Config holds the resolved vault settings.
type Config struct {
	Dir       string   `toml:"dir"`
	Backend   string   `toml:"backend"` // "chromem" | "sqlite"
	ChunkSize int      `toml:"chunk_size"`
	Embedder  Embedder `toml:"embedder"`

	// Workspace is where indexable markdown files live; set during
	// resolution, not read from the marker file.
	Workspace string `toml:"-"`
}

// Getenv is the environment lookup used during resolution.
type Getenv func(string) string

// ResolveDir finds the vault data directory:
//  1. MEMORY_VAULT_DIR environment variable
//  2. dir from .vault.toml in cwd
//  3. memory-vault/ under cwd, if it already holds data
//  4. <home>/.memory-vault
func ResolveDir(getenv Getenv, cwd, home string) string {
	if dir := getenv(EnvVaultDir); dir != "" {
		return dir
	}

	if cfg, err := readMarker(filepath.Join(cwd, MarkerFile)); err == nil && cfg.Dir != "" {
		return expandHome(cfg.Dir, home)
	}

	workspace := filepath.Join(cwd, workspaceVaultDir)
	if info, err := os.Stat(workspace); err == nil && info.IsDir() {
		return workspace
	}

	return filepath.Join(home, defaultDirName)
}

// Load resolves the full configuration for the current process: marker file
// settings merged over defaults, directory per ResolveDir.
func Load(getenv Getenv, cwd, home string) (Config, error) {
	cfg := Config{
		Backend:   "chromem",
		ChunkSize: 500,
		Embedder:  Embedder{Provider: getenv("MEMORY_VAULT_EMBED_PROVIDER")},
		Workspace: cwd,
	}

	marker := filepath.Join(cwd, MarkerFile)
	if _, err := os.Stat(marker); err == nil {
		loaded, err := readMarker(marker)
		if err != nil {
			return cfg, fmt.Errorf("read %s: %w", MarkerFile, err)
		}
		merge(&cfg, loaded)
	}

	if m := getenv("MEMORY_VAULT_EMBED_MODEL"); m != "" {
		cfg.Embedder.Model = m
	}
	if u := getenv("MEMORY_VAULT_EMBED_URL"); u != "" {
		cfg.Embedder.BaseURL = u
	}
	if k := getenv("OPENAI_API_KEY"); k != "" && cfg.Embedder.APIKey == "" {
		cfg.Embedder.APIKey = k
	}

	cfg.Dir = ResolveDir(getenv, cwd, home)
	return cfg, nil
}

func readMarker(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func merge(dst *Config, src Config) {
	if src.Dir != "" {
		dst.Dir = src.Dir
	}
	if src.Backend != "" {
		dst.Backend = src.Backend
	}
	if src.ChunkSize > 0 {
		dst.ChunkSize = src.ChunkSize
	}
	if src.Embedder.Provider != "" {
		dst.Embedder.Provider = src.Embedder.Provider
	}
	if src.Embedder.Model != "" {
		dst.Embedder.Model = src.Embedder.Model
	}
	if src.Embedder.BaseURL != "" {
		dst.Embedder.BaseURL = src.Embedder.BaseURL
	}
	if src.Embedder.APIKey != "" {
		dst.Embedder.APIKey = src.Embedder.APIKey
	}
	if src.Embedder.Dims > 0 {
		dst.Embedder.Dims = src.Embedder.Dims
	}
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == filepath.Separator {
		return filepath.Join(home, path[2:])
	}
	return path
}

// WorkspaceFiles lists the markdown files to index for a workspace: the core
// files that exist, then memory/*.md and .learnings/*.md.
func WorkspaceFiles(workspace string) []string {
	var files []string
	for _, name := range CoreFiles {
		path := filepath.Join(workspace, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	for _, sub := range []string{"memory", ".learnings"} {
		glob, _ := filepath.Glob(filepath.Join(workspace, sub, "*.md"))
		files = append(files, glob...)
	}
	return files
}
