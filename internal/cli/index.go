package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rcliao/memory-vault/internal/config"
	"github.com/rcliao/memory-vault/internal/vault"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Index markdown files into the vault",
		Long: "Chunk, embed, and index markdown files. With no paths, the workspace " +
			"file set is used (MEMORY.md and friends, memory/*.md, .learnings/*.md). " +
			"Indexing the same file again replaces its previous chunks.",
		Run: runIndex,
	}

	cmd.Flags().Bool("full", false, "Drop and rebuild the whole collection instead of per-file replace")

	RootCmd.AddCommand(cmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	full, _ := cmd.Flags().GetBool("full")

	s, cfg, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	paths := args
	if len(paths) == 0 {
		paths = config.WorkspaceFiles(cfg.Workspace)
	}
	if len(paths) == 0 {
		fmt.Println(`{"indexed":0,"files":0}`)
		return
	}

	var docs []vault.Document
	for _, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			exitErr("read "+path, err)
		}
		docs = append(docs, vault.Document{Source: path, Text: string(text)})
	}

	var total int
	if full {
		total, err = s.ReindexAll(cmd.Context(), docs)
	} else {
		total, err = s.IndexDocuments(cmd.Context(), docs)
	}
	if err != nil {
		exitErr("index", err)
	}

	b, _ := json.Marshal(map[string]int{"indexed": total, "files": len(docs)})
	fmt.Println(string(b))
}
