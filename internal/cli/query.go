package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search memories by semantic similarity",
		Long: "Embed the query and return the nearest memories. By default only " +
			"the short summaries are returned; use --full for complete chunk text.",
		Args: cobra.MinimumNArgs(1),
		Run:  runQuery,
	}

	cmd.Flags().Bool("full", false, "Return full chunk text instead of summaries")
	cmd.Flags().StringP("type", "t", "", "Filter by observation type")
	cmd.Flags().IntP("limit", "k", 5, "Max results")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	full, _ := cmd.Flags().GetBool("full")
	typeFilter, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	text := strings.Join(args, " ")

	s, _, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	results, err := s.Query(cmd.Context(), text, limit, full, typeFilter)
	if err != nil {
		exitErr("query", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
