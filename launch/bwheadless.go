package launch

import (
	"fmt"
	"path/filepath"
	"strconv"

	"bwshotgun/bot"
	"bwshotgun/bwapi"
)

const bwheadlessExe = "bwheadless.exe"

const antivirusHint = "Please make sure to extract all files, or check your antivirus software"

// BwHeadless launches the engine through the bwheadless wrapper, which
// creates the game without a rendering surface. The default for headless
// bots.
type BwHeadless struct {
	StarcraftExe string
	ToolsDir     string
	Wrapper      Wrapper
}

func (l *BwHeadless) Build(b *bot.Prepared, game *Game) (*Plan, error) {
	if err := requireFile(l.StarcraftExe, ""); err != nil {
		return nil, err
	}
	dataDir, bwapiDll, err := checkBotData(b)
	if err != nil {
		return nil, err
	}
	tool := filepath.Join(l.ToolsDir, bwheadlessExe)
	if err := requireFile(tool, antivirusHint); err != nil {
		return nil, err
	}

	ini := &bwapi.Ini{
		AIModule:         aiModulePath(b),
		TournamentModule: tournamentModulePath(b, dataDir),
		GameSpeed:        game.GameSpeed,
	}
	iniPath, err := ini.WriteFile(dataDir)
	if err != nil {
		return nil, err
	}

	program, args := l.Wrapper.Wrap(tool)
	args = append(args, "-e", l.StarcraftExe)
	if game.GameName != "" {
		args = append(args, "-g", game.GameName)
	}
	args = append(args,
		"-r", b.Race.String(),
		"-l", bwapiDll,
		"--installpath", b.WorkingDir,
		"-n", b.Name,
		"-gs", strconv.Itoa(game.LatencyFrames),
	)
	if game.Host {
		starcraftDir := filepath.Dir(l.StarcraftExe)
		args = append(args,
			"-m", filepath.Join(starcraftDir, game.Map),
			"-h", strconv.Itoa(game.PlayerCount),
		)
	}

	return &Plan{
		Program: program,
		Args:    args,
		Env: bwapi.Environ(
			iniPath,
			filepath.Join(dataDir, "write"),
			game.TimeoutAtFrame,
		),
		Dir:     b.WorkingDir,
		IniPath: iniPath,
		BotName: b.Name,
		Host:    game.Host,
	}, nil
}

var _ Builder = (*BwHeadless)(nil)

func (l *BwHeadless) String() string {
	return fmt.Sprintf("bwheadless(%s)", l.StarcraftExe)
}
