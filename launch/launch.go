// Package launch turns a prepared bot into a spawnable engine command.
// Two interchangeable strategies exist: BwHeadless drives the engine
// through a wrapper executable and command-line flags, Injectory through
// runtime code injection and BWAPI's auto-menu. Both write the generated
// bwapi.ini before returning and point the engine at it via the
// environment, because the engine's own install-path detection is
// unreliable across BWAPI versions.
package launch

import (
	"fmt"
	"os"
	"path/filepath"

	"bwshotgun/bot"
)

// Game carries the per-launch match parameters. Host flips to false after
// the first participant; GameName may change when a headful bot hosts.
type Game struct {
	Map            string
	GameName       string
	PlayerCount    int
	Host           bool
	GameSpeed      int
	LatencyFrames  int
	TimeoutAtFrame int
}

// Plan is the fully assembled invocation of one engine process. Transient;
// it exists only long enough to spawn the process.
type Plan struct {
	Program string
	Args    []string
	// Env holds additions over the inherited environment.
	Env []string
	Dir string

	// IniPath is the generated configuration consumed by the engine at
	// its own startup.
	IniPath string
	BotName string
	Host    bool
}

// Builder builds a launch plan for one bot. Implementations must verify
// their external tool preconditions and name the exact missing path on
// failure.
type Builder interface {
	Build(b *bot.Prepared, game *Game) (*Plan, error)
}

func requireFile(path string, hint string) error {
	if _, err := os.Stat(path); err != nil {
		if hint != "" {
			return fmt.Errorf("could not find '%s'. %s", path, hint)
		}
		return fmt.Errorf("could not find '%s'", path)
	}
	return nil
}

// checkBotData verifies the bot folder layout and returns the bwapi-data
// dir and BWAPI.dll path shared by both strategies.
func checkBotData(b *bot.Prepared) (dataDir string, bwapiDll string, err error) {
	dataDir = bot.BWAPIDataDir(b.WorkingDir)
	if _, err := os.Stat(dataDir); err != nil {
		return "", "", fmt.Errorf(
			"missing '%s' - please read the instructions on how to setup a bot", dataDir)
	}
	bwapiDll = filepath.Join(dataDir, "BWAPI.dll")
	if err := requireFile(bwapiDll, ""); err != nil {
		return "", "", err
	}
	return dataDir, bwapiDll, nil
}

func aiModulePath(b *bot.Prepared) string {
	if b.Binary.Kind == bot.DynamicModule {
		return b.Binary.Path
	}
	// Client bots connect on their own; BWAPI loads nothing.
	return ""
}

func tournamentModulePath(b *bot.Prepared, dataDir string) string {
	if b.TournamentModule == "" {
		return ""
	}
	return filepath.Join(dataDir, b.TournamentModule)
}
