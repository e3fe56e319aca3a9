package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the gbsearch daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonStartCmd.Flags().Bool("no-watch", false, "do not reload the dataset when its files change")
	daemonStartCmd.Flags().Bool("foreground", false, "run in the foreground until interrupted")
	daemonStartCmd.Flags().Bool("http", false, "also serve the JSON API on localhost")
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	sockPath := socket.SocketPath(root)

	client := socket.NewClient(sockPath)
	if client.Ping() {
		fmt.Println(styles().accent.Render("⚡ daemon already running"))
		return nil
	}

	paths := app.NewPaths(root)
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	if fg, _ := cmd.Flags().GetBool("foreground"); !fg {
		return spawnDaemon(cmd, paths, client, sockPath)
	}

	logFile, err := os.OpenFile(paths.DaemonLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: settings.Level()}))

	s := settings
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		s.Watch = false
	}

	withHTTP, _ := cmd.Flags().GetBool("http")
	a, err := app.New(app.Config{ProjectRoot: root, Settings: s, HTTP: withHTTP, Logger: logger})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%s", diagnoseDBLock(root))
		}
		return fmt.Errorf("init: %w", err)
	}
	os.WriteFile(paths.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0644)
	defer paths.CleanEphemeral()
	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}

	fmt.Printf("⚡ gbsearch daemon started at %s\n", sockPath)
	if a.Web != nil {
		fmt.Printf("  http api at %s\n", a.Web.URL())
	}
	if ds := a.Dataset(); ds != nil {
		fmt.Printf("  dataset %s (%d features)\n", ds.Name, ds.FeatureCount())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-a.Server.ShutdownCh():
	}

	fmt.Println("\n⚡ shutting down...")
	return a.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	client := socket.NewClient(socket.SocketPath(projectRoot()))
	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}
	if err := client.Shutdown(); err != nil {
		return err
	}
	fmt.Println("⚡ daemon stopped")
	return nil
}

// spawnDaemon re-executes this binary as a detached foreground daemon and
// waits for its socket to answer.
func spawnDaemon(cmd *cobra.Command, paths *app.Paths, client *socket.Client, sockPath string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	args := append([]string{"daemon", "start", "--foreground"}, forwardedFlags(cmd)...)

	logFile, err := os.OpenFile(paths.DaemonLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	proc := exec.Command(exe, args...)
	proc.Dir = filepath.Dir(paths.Root)
	proc.Stdout = logFile
	proc.Stderr = logFile
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	exited := make(chan error, 1)
	go func() { exited <- proc.Wait() }()

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case err := <-exited:
			return fmt.Errorf("daemon exited during startup (%v), see %s", err, paths.DaemonLog)
		case <-deadline:
			return fmt.Errorf("daemon did not come up within 10s, see %s", paths.DaemonLog)
		case <-tick.C:
			if client.Ping() {
				fmt.Printf("⚡ gbsearch daemon started at %s\n", sockPath)
				return nil
			}
		}
	}
}

// forwardedFlags repeats the persistent flags the user set so the child
// resolves the same settings.
func forwardedFlags(cmd *cobra.Command) []string {
	var out []string
	cmd.Root().PersistentFlags().Visit(func(f *pflag.Flag) {
		out = append(out, "--"+f.Name+"="+f.Value.String())
	})
	for _, name := range []string{"no-watch", "http"} {
		if cmd.Flags().Changed(name) {
			out = append(out, "--"+name)
		}
	}
	return out
}
