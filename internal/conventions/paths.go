package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default imgconv data directory name (relative to home).
	DefaultDataDir = ".imgconv"
	// HistoryDBFile is the SQLite run history database filename.
	HistoryDBFile = "history.db"
	// DefaultOutputDir is the output directory name (relative to the working directory)
	// used when none is given.
	DefaultOutputDir = "output"
)

// HistoryDBPath returns the run history database path inside a home directory.
func HistoryDBPath(homeDir string) string {
	return filepath.Join(homeDir, DefaultDataDir, HistoryDBFile)
}

// OutputDir returns the default output directory for a working directory.
func OutputDir(workDir string) string {
	return filepath.Join(workDir, DefaultOutputDir)
}
