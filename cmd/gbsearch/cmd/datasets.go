package cmd

import (
	"fmt"

	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List stored datasets",
	Long:  "Lists stored datasets; '*' marks the current one. Asks the daemon when it is running, otherwise reads the store.",
	Args:  cobra.NoArgs,
	RunE:  runDatasets,
}

var datasetsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a stored dataset current (daemon must be stopped)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetsUse,
}

var datasetsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a stored dataset (daemon must be stopped)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetsRm,
}

func init() {
	datasetsCmd.AddCommand(datasetsUseCmd)
	datasetsCmd.AddCommand(datasetsRmCmd)
}

func runDatasets(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		r, err := client.Datasets()
		if err != nil {
			return err
		}
		fmt.Print(formatDatasets(styles(), r))
		return nil
	}

	a, err := openOffline(root)
	if err != nil {
		return err
	}
	defer a.Stop()

	r, err := a.Datasets()
	if err != nil {
		return err
	}
	fmt.Print(formatDatasets(styles(), &r))
	return nil
}

func runDatasetsUse(cmd *cobra.Command, args []string) error {
	a, err := openOffline(projectRoot())
	if err != nil {
		return err
	}
	defer a.Stop()

	ds, err := a.UseDataset(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("⚡ current dataset: %s (%d features)\n", ds.Name, ds.FeatureCount())
	return nil
}

func runDatasetsRm(cmd *cobra.Command, args []string) error {
	a, err := openOffline(projectRoot())
	if err != nil {
		return err
	}
	defer a.Stop()

	ds, err := a.Store.LoadDatasetByName(args[0])
	if err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("no dataset named %q", args[0])
	}
	if err := a.Store.DeleteDataset(ds.ID); err != nil {
		return err
	}
	fmt.Printf("⚡ removed %s\n", ds.Name)
	return nil
}
