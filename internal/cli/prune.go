package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/memory-vault/internal/vault"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove decayed memories",
		Long: "Score every memory by age, staleness, access frequency, and " +
			"importance; delete those above the decay threshold. Use --dry-run " +
			"to list candidates without deleting.",
		Run: runPrune,
	}

	cmd.Flags().Float64("threshold", vault.DefaultPruneThreshold, "Decay score above which memories are pruned")
	cmd.Flags().Bool("dry-run", false, "List candidates without deleting")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	s, _, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	candidates, err := s.Prune(cmd.Context(), threshold, dryRun)
	if err != nil {
		exitErr("prune", err)
	}

	out := map[string]interface{}{
		"threshold":  threshold,
		"dry_run":    dryRun,
		"candidates": candidates,
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
