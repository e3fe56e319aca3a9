package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/app"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:     "load <file>",
	Aliases: []string{"import"},
	Short:   "Load a dataset and make it current",
	Long: heredoc.Doc(`
		Read a gene table (.tsv) or a dataset manifest (.yaml), store it and
		make it the current dataset. With a running daemon the daemon loads
		it and re-indexes at once; otherwise it is stored for the next start.

		Gene table columns, tab-separated:
		  seq_id  strand  start  end  name  [common_name  [gene_type]]
	`),
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	root := projectRoot()
	p := styles()

	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		r, err := client.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %d tracks, %d features, %d terms\n",
			p.accent.Render("⚡ loaded"), r.Dataset.Name, r.Dataset.TrackCount, r.Dataset.FeatureCount, r.Terms)
		return nil
	}

	a, err := openOffline(root)
	if err != nil {
		return err
	}
	defer a.Stop()

	ds, err := a.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: %d tracks, %d features %s\n",
		p.accent.Render("⚡ stored"), ds.Name, len(ds.Tracks), ds.FeatureCount(),
		p.dim.Render("(daemon not running)"))
	return nil
}

// openOffline wires an App without starting its server or watcher, for
// commands that work on the store directly.
func openOffline(root string) (*app.App, error) {
	s := settings
	s.Watch = false
	a, err := app.New(app.Config{
		ProjectRoot: root,
		Settings:    s,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%s", diagnoseDBLock(root))
		}
		return nil, err
	}
	return a, nil
}
