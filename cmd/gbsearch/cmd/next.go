package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next result of the last search",
	Long:  "Steps a cursor through the last search's results, wrapping to the first after the last.",
	Args:  cobra.NoArgs,
	RunE:  runNext,
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the results of the last search",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func runNext(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}

	r, err := client.Next()
	if err != nil {
		return err
	}
	p := styles()
	if !r.Found {
		fmt.Println(p.dim.Render("no results"))
		return nil
	}
	fmt.Println(formatFeature(p, r.Feature))
	return nil
}

func runResults(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}

	r, err := client.Results()
	if err != nil {
		return err
	}
	fmt.Print(formatFeatures(styles(), r, false))
	return nil
}
