package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var mentionsCmd = &cobra.Command{
	Use:   "mentions [text]",
	Short: "List features whose names occur in text",
	Long: heredoc.Doc(`
		Scan text for whole-word occurrences of indexed names and common
		names, case-insensitively. Text comes from the arguments or, when
		there are none, from stdin.
	`),
	Example: heredoc.Doc(`
		$ gbsearch mentions "gvpA and trkA are induced"
		$ cat abstract.txt | gbsearch mentions
	`),
	RunE: runMentions,
}

func runMentions(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		if !isStdinPipe() {
			return fmt.Errorf("no text: pass it as arguments or on stdin")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	client, err := requireDaemon()
	if err != nil {
		return err
	}
	r, err := client.Mentions(text)
	if err != nil {
		return err
	}
	fmt.Print(formatFeatures(styles(), r, false))
	return nil
}
