package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a memory by id",
		Long:  "Remove a memory. Deleting an unknown id reports deleted:false, not an error.",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete,
	}

	RootCmd.AddCommand(cmd)
}

func runDelete(cmd *cobra.Command, args []string) {
	s, _, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	existed, err := s.DeleteByID(cmd.Context(), args[0])
	if err != nil {
		exitErr("delete", err)
	}

	fmt.Printf(`{"id":%q,"deleted":%t}`+"\n", args[0], existed)
}
