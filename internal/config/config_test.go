package config

import (
	"os"
	"path/filepath"
	"testing"
)

func fakeEnv(vars map[string]string) Getenv {
	return func(key string) string { return vars[key] }
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDirEnvWins(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	// Env var beats a marker file that also names a dir.
	writeFile(t, filepath.Join(cwd, MarkerFile), `dir = "/marker/dir"`)

	env := fakeEnv(map[string]string{EnvVaultDir: "/env/dir"})
	if got := ResolveDir(env, cwd, home); got != "/env/dir" {
		t.Errorf("ResolveDir = %q, want env override", got)
	}
}

func TestResolveDirMarkerFile(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, MarkerFile), `dir = "/marker/dir"`)

	if got := ResolveDir(fakeEnv(nil), cwd, home); got != "/marker/dir" {
		t.Errorf("ResolveDir = %q, want marker dir", got)
	}
}

func TestResolveDirMarkerExpandsHome(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, MarkerFile), `dir = "~/vault-data"`)

	want := filepath.Join(home, "vault-data")
	if got := ResolveDir(fakeEnv(nil), cwd, home); got != want {
		t.Errorf("ResolveDir = %q, want %q", got, want)
	}
}

func TestResolveDirWorkspaceDir(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	workspace := filepath.Join(cwd, "memory-vault")
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := ResolveDir(fakeEnv(nil), cwd, home); got != workspace {
		t.Errorf("ResolveDir = %q, want workspace dir %q", got, workspace)
	}
}

func TestResolveDirDefaultsToHome(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	want := filepath.Join(home, ".memory-vault")
	if got := ResolveDir(fakeEnv(nil), cwd, home); got != want {
		t.Errorf("ResolveDir = %q, want %q", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	cfg, err := Load(fakeEnv(nil), cwd, home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "chromem" {
		t.Errorf("Backend = %q, want chromem", cfg.Backend)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.Workspace != cwd {
		t.Errorf("Workspace = %q, want cwd", cfg.Workspace)
	}
	if cfg.Dir != filepath.Join(home, ".memory-vault") {
		t.Errorf("Dir = %q, want home default", cfg.Dir)
	}
}

func TestLoadMergesMarkerOverDefaults(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, MarkerFile), `
backend = "sqlite"
chunk_size = 800

[embedder]
provider = "ollama"
model = "all-minilm"
`)

	cfg, err := Load(fakeEnv(nil), cwd, home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.ChunkSize != 800 {
		t.Errorf("ChunkSize = %d, want 800", cfg.ChunkSize)
	}
	if cfg.Embedder.Provider != "ollama" || cfg.Embedder.Model != "all-minilm" {
		t.Errorf("Embedder = %+v, want marker settings", cfg.Embedder)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, MarkerFile), `
[embedder]
provider = "openai"
model = "text-embedding-3-small"
`)

	env := fakeEnv(map[string]string{
		"MEMORY_VAULT_EMBED_MODEL": "text-embedding-3-large",
		"MEMORY_VAULT_EMBED_URL":   "http://localhost:11434",
		"OPENAI_API_KEY":           "sk-test",
	})
	cfg, err := Load(env, cwd, home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedder.Model != "text-embedding-3-large" {
		t.Errorf("Model = %q, want env override", cfg.Embedder.Model)
	}
	if cfg.Embedder.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q, want env override", cfg.Embedder.BaseURL)
	}
	if cfg.Embedder.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want env fallback", cfg.Embedder.APIKey)
	}
}

func TestLoadMarkerAPIKeyBeatsEnv(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, MarkerFile), `
[embedder]
api_key = "sk-marker"
`)

	env := fakeEnv(map[string]string{"OPENAI_API_KEY": "sk-env"})
	cfg, err := Load(env, cwd, home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedder.APIKey != "sk-marker" {
		t.Errorf("APIKey = %q, want marker value", cfg.Embedder.APIKey)
	}
}

func TestLoadBadMarker(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, MarkerFile), `backend = [not toml`)

	if _, err := Load(fakeEnv(nil), cwd, home); err == nil {
		t.Error("expected error for malformed marker file")
	}
}

func TestExpandHome(t *testing.T) {
	cases := []struct {
		path, want string
	}{
		{"~", "/home/u"},
		{"~/data", filepath.Join("/home/u", "data")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~user/data", "~user/data"},
	}
	for _, tc := range cases {
		if got := expandHome(tc.path, "/home/u"); got != tc.want {
			t.Errorf("expandHome(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestWorkspaceFiles(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "MEMORY.md"), "# Memory")
	writeFile(t, filepath.Join(ws, "SOUL.md"), "# Soul")
	writeFile(t, filepath.Join(ws, "README.md"), "not a core file")
	writeFile(t, filepath.Join(ws, "memory", "2026-08-01.md"), "daily notes")
	writeFile(t, filepath.Join(ws, "memory", "notes.txt"), "wrong extension")
	writeFile(t, filepath.Join(ws, ".learnings", "LEARNINGS.md"), "lessons")

	files := WorkspaceFiles(ws)

	want := map[string]bool{
		filepath.Join(ws, "MEMORY.md"):                  true,
		filepath.Join(ws, "SOUL.md"):                    true,
		filepath.Join(ws, "memory", "2026-08-01.md"):    true,
		filepath.Join(ws, ".learnings", "LEARNINGS.md"): true,
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files %v, want %d", len(files), files, len(want))
	}
	for _, f := range files {
		if !want[f] {
			t.Errorf("unexpected file %q", f)
		}
	}
}

func TestWorkspaceFilesEmpty(t *testing.T) {
	if files := WorkspaceFiles(t.TempDir()); len(files) != 0 {
		t.Errorf("empty workspace listed %v", files)
	}
}
