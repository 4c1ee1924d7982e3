package bot

import (
	"fmt"
	"os"
	"path/filepath"
)

// Prepared is a bot that is ready to launch: binary resolved, race and
// display name fixed, working and log directories created. Derived once
// per match and kept by the orchestrator for status reporting.
type Prepared struct {
	Name    string
	Race    Race
	Binary  Artifact
	Headful bool

	// WorkingDir is the bot's own folder (containing bwapi-data); every
	// process of this bot runs with it as current directory.
	WorkingDir string
	LogDir     string

	// TournamentModule is the version-matched module filename, empty when
	// none applies. Filled in after engine version detection.
	TournamentModule string
}

// PrepareOptions carries the per-match overrides from game configuration
// merged with the bot's static definition.
type PrepareOptions struct {
	Name       string
	PlayerName string
	Race       Race
	Headful    bool
	// Executable bypasses directory scanning when set. It is only
	// validated for classification here, not existence.
	Executable string
}

// BWAPIDataDir returns the bwapi-data folder inside a bot directory.
func BWAPIDataDir(botDir string) string {
	return filepath.Join(botDir, "bwapi-data")
}

// Prepare creates the bot's read/write/log directories and resolves its
// binary from bwapi-data/AI (or the explicit override).
func Prepare(botDir string, opts PrepareOptions) (*Prepared, error) {
	dataDir := BWAPIDataDir(botDir)
	logDir := filepath.Join(botDir, "logs")

	for _, dir := range []string{
		filepath.Join(dataDir, "read"),
		filepath.Join(dataDir, "write"),
		logDir,
	} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("could not create '%s' for bot '%s': %v", dir, opts.Name, err)
		}
	}

	var binary Artifact
	if opts.Executable != "" {
		var ok bool
		binary, ok = Classify(opts.Executable)
		if !ok {
			return nil, fmt.Errorf("bot '%s': executable override '%s' is not a dll, jar or exe",
				opts.Name, opts.Executable)
		}
	} else {
		var err error
		binary, err = Resolve(filepath.Join(dataDir, "AI"))
		if err != nil {
			return nil, fmt.Errorf("bot '%s': %w", opts.Name, err)
		}
	}

	name := opts.PlayerName
	if name == "" {
		name = opts.Name
	}

	return &Prepared{
		Name:       name,
		Race:       opts.Race,
		Binary:     binary,
		Headful:    opts.Headful,
		WorkingDir: botDir,
		LogDir:     logDir,
	}, nil
}
