package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .gbsearch/ project directory.
type Paths struct {
	Root   string // .gbsearch/
	DB     string // .gbsearch/gbsearch.db
	Config string // .gbsearch/config.yaml

	LogDir    string // .gbsearch/log/
	DaemonLog string // .gbsearch/log/daemon.log

	RunDir   string // .gbsearch/run/
	PIDFile  string // .gbsearch/run/daemon.pid
	HTTPPort string // .gbsearch/run/http.port
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".gbsearch")
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "gbsearch.db"),
		Config: filepath.Join(root, "config.yaml"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		HTTPPort: filepath.Join(root, "run", "http.port"),
	}
}

// EnsureDirs creates all subdirectories under .gbsearch/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes runtime files. Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.HTTPPort)
}
