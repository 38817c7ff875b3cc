package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vault statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, cfg, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	out := map[string]interface{}{
		"vault_dir":      cfg.Dir,
		"workspace_dir":  cfg.Workspace,
		"total_memories": stats.Total,
		"by_source":      stats.BySource,
		"by_type":        stats.ByType,
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
