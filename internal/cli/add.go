package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rcliao/memory-vault/internal/vault"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add an observation memory",
		Long: "Store a single observation. Text can be a positional arg or piped " +
			"via stdin. Unknown types fall back to \"observation\".",
		Run: runAdd,
	}

	cmd.Flags().StringP("type", "t", "observation", "Observation type: decision, lesson, bugfix, discovery, implementation, observation")
	cmd.Flags().StringP("area", "a", "core", "Memory area label")
	cmd.Flags().Float64("importance", 0, "Importance in (0,1]; default 0.5")
	cmd.Flags().Float64("dedupe", 0, "Skip insert when an existing memory scores at or above this similarity")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	obsType, _ := cmd.Flags().GetString("type")
	area, _ := cmd.Flags().GetString("area")
	importance, _ := cmd.Flags().GetFloat64("importance")
	dedupe, _ := cmd.Flags().GetFloat64("dedupe")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("add", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	s, _, err := openVault()
	if err != nil {
		exitErr("open vault", err)
	}
	defer s.Close()

	id, created, err := s.AddObservation(cmd.Context(), strings.TrimSpace(text), vault.ObservationOptions{
		Type:            obsType,
		Area:            area,
		Importance:      importance,
		DedupeThreshold: dedupe,
	})
	if err != nil {
		exitErr("add", err)
	}

	b, _ := json.Marshal(map[string]interface{}{"id": id, "created": created, "type": obsType})
	fmt.Println(string(b))
}
