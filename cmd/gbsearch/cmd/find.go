package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <name>...",
	Short: "Look features up by exact canonical name",
	Long:  "Exact lookup by feature name (not common name). Wildcards in a name still apply; no prefix is added.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFind,
}

func runFind(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}

	result, err := client.Find(args...)
	if err != nil {
		return err
	}
	fmt.Print(formatFeatures(styles(), result, false))
	return nil
}
