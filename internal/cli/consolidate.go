package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Find near-duplicate memory pairs",
		Long: "All-pairs cosine similarity scan over the whole store. Pairs at or " +
			"above the threshold are merge candidates, sorted most-similar first.",
		Run: runConsolidate,
	}

	cmd.Flags().Float64("threshold", 0.85, "Minimum similarity for a candidate pair")
	cmd.Flags().IntP("limit", "l", 0, "Max pairs to return (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit, _ := cmd.Flags().GetInt("limit")

	s, _, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	pairs, err := s.FindSimilarPairs(cmd.Context(), threshold, limit)
	if err != nil {
		exitErr("consolidate", err)
	}

	if len(pairs) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(pairs, "", "  ")
	fmt.Println(string(b))
}
