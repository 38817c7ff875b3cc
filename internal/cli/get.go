package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id...]",
		Short: "Retrieve full memories by id",
		Long:  "Exact lookup by id, no access tracking. Unknown ids are omitted from the output.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s, _, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	recs, err := s.GetByIDs(cmd.Context(), args)
	if err != nil {
		exitErr("get", err)
	}

	if len(recs) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(recs, "", "  ")
	fmt.Println(string(b))
}
