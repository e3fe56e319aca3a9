package cmd

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/ports"
	"github.com/spf13/cobra"
)

var (
	searchPick   bool
	searchCount  bool
	searchStrand string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search features by name or common name",
	Long: heredoc.Doc(`
		Search the current dataset. Arguments are joined into one query and
		split into keywords on whitespace, commas and semicolons. A feature
		matching any keyword is returned once, ordered by sequence and start.

		Keywords are wildcard patterns: '*' matches any run of characters,
		'\' escapes the next one. Unless auto-wildcard is off, a keyword
		without a trailing '*' gets one.

		--auto-wildcard and --case-sensitive, when given, apply to this
		search only; otherwise the daemon's settings are used. --strand
		filters what is printed; next and results still see every hit.
	`),
	Example: heredoc.Doc(`
		$ gbsearch search trk
		$ gbsearch search "VNG1*G, gvp"
		$ gbsearch search --pick vng
		$ gbsearch search --auto-wildcard=false trkA
		$ gbsearch search --strand - VNG1*
	`),
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchPick, "pick", false, "choose one of several results interactively")
	searchCmd.Flags().BoolVarP(&searchCount, "count", "c", false, "print only the result count")
	searchCmd.Flags().StringVar(&searchStrand, "strand", "", "show only features on this strand: +, -, . or *")
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}

	result, err := client.SearchWith(searchParams(cmd, strings.Join(args, " ")))
	if err != nil {
		return err
	}

	if searchStrand != "" {
		filterByStrand(result, ports.ParseStrand(searchStrand))
	}

	p := styles()
	if searchPick && result.Count > 1 && !isStdinPipe() {
		f, ok, err := pickFeature(result.Features)
		if err != nil {
			return err
		}
		if ok {
			fmt.Println(formatFeature(p, f))
		}
		return nil
	}
	fmt.Print(formatFeatures(p, result, searchCount))
	return nil
}

// searchParams forwards the matching flags the user set explicitly.
func searchParams(cmd *cobra.Command, query string) socket.SearchParams {
	p := socket.SearchParams{Query: query}
	if cmd.Flags().Changed("auto-wildcard") {
		on := settings.AutoWildcard
		p.AutoWildcard = &on
	}
	if cmd.Flags().Changed("case-sensitive") {
		on := settings.CaseSensitive
		p.CaseSensitive = &on
	}
	return p
}

// filterByStrand keeps the features whose strand s encompasses.
func filterByStrand(r *socket.FeaturesResult, s ports.Strand) {
	kept := r.Features[:0]
	for _, f := range r.Features {
		if s.Encompasses(f.Strand) {
			kept = append(kept, f)
		}
	}
	r.Features = kept
	r.Count = len(kept)
}
