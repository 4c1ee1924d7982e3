// Package config loads the three TOML files driving a match: the install
// settings (shotgun.toml), the match description (game.toml) and the
// per-bot definition (bots/<name>/bot.toml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"bwshotgun/bot"

	"github.com/BurntSushi/toml"
)

// Shotgun holds machine-level settings. Every field is optional; missing
// values fall back to component auto-detection or provisioning.
type Shotgun struct {
	StarcraftPath string `toml:"starcraft_path"`
	JavaPath      string `toml:"java_path"`
}

// LoadShotgun reads shotgun.toml. A missing file yields defaults, matching
// a fresh installation.
func LoadShotgun(path string) (*Shotgun, error) {
	var cfg Shotgun
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &Shotgun{}, nil
		}
		return nil, fmt.Errorf("invalid config in '%s': %v", path, err)
	}
	return &cfg, nil
}

// BotSlot is one participant entry in game.toml. Race and player name
// override the bot's own definition when set.
type BotSlot struct {
	Name       string    `toml:"name"`
	PlayerName string    `toml:"player_name"`
	Race       *bot.Race `toml:"race"`
	Headful    bool      `toml:"headful"`
}

// Game describes one match.
type Game struct {
	Map            string    `toml:"map"`
	GameName       string    `toml:"game_name"`
	HumanHost      bool      `toml:"human_host"`
	HumanSpeed     bool      `toml:"human_speed"`
	LatencyFrames  int       `toml:"latency_frames"`
	TimeoutAtFrame int       `toml:"timeout_at_frame"`
	Bots           []BotSlot `toml:"bots"`
}

const defaultLatencyFrames = 3

// LoadGame reads and validates game.toml.
func LoadGame(path string) (*Game, error) {
	var cfg Game
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not load '%s': %v", path, err)
	}
	if !meta.IsDefined("latency_frames") {
		cfg.LatencyFrames = defaultLatencyFrames
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("'%s': %w", path, err)
	}
	return &cfg, nil
}

func (g *Game) Validate() error {
	if g.Map == "" && !g.HumanHost {
		return fmt.Errorf("map must be set for non-human hosted games")
	}
	if len(g.Bots) == 0 {
		return fmt.Errorf("at least one bot is required")
	}
	return nil
}

// BotDefinition is the static description shipped with a bot.
type BotDefinition struct {
	Race bot.Race `toml:"race"`
	// Executable overrides binary resolution; validated for extension
	// classification only.
	Executable string `toml:"executable"`
}

// LoadBotDefinition reads bots/<name>/bot.toml.
func LoadBotDefinition(botDir string) (*BotDefinition, error) {
	path := filepath.Join(botDir, "bot.toml")
	var def BotDefinition
	if _, err := toml.DecodeFile(path, &def); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read 'bot.toml' in '%s': %v", botDir, err)
		}
		return nil, fmt.Errorf("could not read '%s': %v", path, err)
	}
	return &def, nil
}
