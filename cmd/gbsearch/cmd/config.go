package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/app"
	"github.com/corey/gbsearch/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows project paths, effective settings, and daemon status. No daemon required.",
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write .gbsearch/config.yaml with the defaults",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	paths := app.NewPaths(root)
	sockPath := socket.SocketPath(root)
	p := styles()

	daemonStatus := p.warn.Render("✗ not running")
	if socket.NewClient(sockPath).Ping() {
		daemonStatus = p.accent.Render("✓ running")
	}
	configFile := v.ConfigFileUsed()
	if configFile == "" {
		configFile = p.dim.Render("(none, defaults)")
	}

	fmt.Println(p.header.Render("⚡ gbsearch config"))
	fmt.Printf("  Project:        %s\n", filepath.Base(root))
	fmt.Printf("  Root:           %s\n", root)
	fmt.Printf("  DB:             %s\n", paths.DB)
	fmt.Printf("  Socket:         %s\n", sockPath)
	fmt.Printf("  Config file:    %s\n", configFile)
	fmt.Printf("  Daemon:         %s\n", daemonStatus)
	if port, err := os.ReadFile(paths.HTTPPort); err == nil {
		fmt.Printf("  HTTP API:       http://localhost:%s\n", strings.TrimSpace(string(port)))
	}
	fmt.Printf("  %-15s %v\n", config.KeyAutoWildcard+":", settings.AutoWildcard)
	fmt.Printf("  %-15s %v\n", config.KeyCaseSensitive+":", settings.CaseSensitive)
	fmt.Printf("  %-15s %s\n", config.KeyLogLevel+":", settings.LogLevel)
	fmt.Printf("  %-15s %v\n", config.KeyWatch+":", settings.Watch)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths := app.NewPaths(projectRoot())
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	path, err := config.WriteDefault(paths.Root)
	if err != nil {
		return err
	}
	fmt.Printf("⚡ wrote %s\n", path)
	return nil
}
