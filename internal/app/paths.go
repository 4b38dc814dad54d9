package app

import (
	"os"
	"path/filepath"
)

// DirName is the per-project state directory.
const DirName = ".conferente"

// Paths holds all resolved filesystem paths for the .conferente/ directory.
type Paths struct {
	Root          string // .conferente/
	DB            string // .conferente/conferente.db
	HistorySQLite string // .conferente/history.sqlite
	Config        string // .conferente/config.yaml

	LogDir  string // .conferente/log/
	LogFile string // .conferente/log/serve.log

	RunDir   string // .conferente/run/
	AddrFile string // .conferente/run/http.addr
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, DirName)
	return &Paths{
		Root:          root,
		DB:            filepath.Join(root, "conferente.db"),
		HistorySQLite: filepath.Join(root, "history.sqlite"),
		Config:        filepath.Join(root, "config.yaml"),

		LogDir:  filepath.Join(root, "log"),
		LogFile: filepath.Join(root, "log", "serve.log"),

		RunDir:   filepath.Join(root, "run"),
		AddrFile: filepath.Join(root, "run", "http.addr"),
	}
}

// EnsureDirs creates all subdirectories under .conferente/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes runtime files left by a running server.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.AddrFile)
}

// FindRoot walks up from dir looking for an existing .conferente/ directory.
// When none is found, dir itself is the root.
func FindRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for d := abs; ; {
		if info, err := os.Stat(filepath.Join(d, DirName)); err == nil && info.IsDir() {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs
		}
		d = parent
	}
}
