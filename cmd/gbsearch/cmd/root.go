package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/corey/gbsearch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	settings = config.Default()
	v        = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "gbsearch",
	Short: "gbsearch: feature search for genome annotations",
	Long: heredoc.Doc(`
		Wildcard keyword search over the gene names and common names of a
		genome dataset. A daemon holds the index; the other commands talk
		to it over a Unix socket.

		Queries are keywords separated by whitespace, commas or semicolons.
		'*' matches any run of characters, '\' escapes the next character.
		By default every keyword is a prefix: "trk" finds trkA and trkH.
	`),
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// loadSettings reads .gbsearch/config.yaml (or --config), the environment
// and flags, then installs a CLI logger at the configured level.
func loadSettings(cmd *cobra.Command, args []string) error {
	configDir := filepath.Join(projectRoot(), ".gbsearch")
	s, err := config.Load(v, configDir, cfgFile)
	if err != nil {
		return err
	}
	settings = s
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: s.Level()})))
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is .gbsearch/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("auto-wildcard", true, "treat every keyword as a prefix")
	pf.Bool("case-sensitive", false, "match keywords case-sensitively")
	pf.BoolVar(&noColor, "no-color", false, "disable styled output")
	v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	v.BindPFlag(config.KeyAutoWildcard, pf.Lookup("auto-wildcard"))
	v.BindPFlag(config.KeyCaseSensitive, pf.Lookup("case-sensitive"))

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(mentionsCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}
