// Package bwapi covers the contract with the BWAPI engine add-on: the
// generated bwapi.ini it reads at startup, the environment variables it
// honors, and the version table keyed by its binary checksum.
package bwapi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bwshotgun/bot"
)

// IniName is the generated configuration file name inside bwapi-data.
const IniName = "bwapi.ini"

const replayTemplate = `replays/$Y $b $d/%MAP%_%BOTRACE%%ALLYRACES%vs%ENEMYRACES%_$H$M$S.rep`

// AutoMenu drives BWAPI's own menu automation, used for injected launches.
// bwheadless performs the menu flow itself, in which case the section is
// left empty.
type AutoMenu struct {
	CharacterName string
	Race          bot.Race
	GameName      string

	// Host selects between creating a LAN game on Map with PlayerCount
	// participants and joining GameName.
	Host        bool
	Map         string
	PlayerCount int
}

// Ini is the per-bot bwapi.ini content. BWAPI can manage several bots from
// one file, but one file per bot keeps the read/write folders separated.
type Ini struct {
	AIModule         string
	TournamentModule string
	AutoMenu         *AutoMenu
	// GameSpeed of 0 runs full throttle, -1 leaves the engine default for
	// human spectating.
	GameSpeed int
}

func (ini *Ini) Write(w io.Writer) error {
	write := func(format string, args ...interface{}) error {
		_, err := fmt.Fprintf(w, format+"\n", args...)
		return err
	}

	if err := write("[ai]"); err != nil {
		return err
	}
	if err := write("ai = %s", ini.AIModule); err != nil {
		return err
	}
	if ini.TournamentModule != "" {
		if err := write("tournament = %s", ini.TournamentModule); err != nil {
			return err
		}
	}
	if err := write("[auto_menu]"); err != nil {
		return err
	}
	if menu := ini.AutoMenu; menu != nil {
		if err := write("auto_menu=LAN"); err != nil {
			return err
		}
		if err := write("lan_mode=Local PC"); err != nil {
			return err
		}
		if err := write("character_name=%s", menu.CharacterName); err != nil {
			return err
		}
		if err := write("race=%s", menu.Race); err != nil {
			return err
		}
		if menu.Host {
			if err := write("map=%s", menu.Map); err != nil {
				return err
			}
			if err := write("wait_for_min_players=%d", menu.PlayerCount); err != nil {
				return err
			}
			if err := write("wait_for_max_players=%d", menu.PlayerCount); err != nil {
				return err
			}
		} else {
			if err := write("game=%s", menu.GameName); err != nil {
				return err
			}
		}
	}
	if err := write("save_replay = %s", replayTemplate); err != nil {
		return err
	}
	if err := write("[starcraft]"); err != nil {
		return err
	}
	if err := write("speed_override = %d", ini.GameSpeed); err != nil {
		return err
	}
	return write("sound = OFF")
}

// WriteFile writes the ini into a bot's bwapi-data folder and returns the
// file's path, which launch builders export via ConfigEnvVar.
func (ini *Ini) WriteFile(dataDir string) (string, error) {
	path := filepath.Join(dataDir, IniName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create '%s': %v", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := ini.Write(f); err != nil {
		return "", fmt.Errorf("could not write '%s': %v", path, err)
	}
	return path, nil
}
