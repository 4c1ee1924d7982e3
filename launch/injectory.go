package launch

import (
	"fmt"
	"path/filepath"

	"bwshotgun/bot"
	"bwshotgun/bwapi"
)

const (
	injectoryExe = "injectory_x86.exe"
	wmodeDll     = "WMode.dll"
)

// Injectory launches the full engine and injects BWAPI.dll into it; the
// menu flow is automated by the generated auto_menu section. Used for
// headful bots, since a real game window comes up.
//
// Injectory does not perform the registry tricks bwheadless does, so bots
// built against BWAPI older than 4.x will most likely not work here.
type Injectory struct {
	StarcraftExe string
	ToolsDir     string
	Wrapper      Wrapper
	// WMode additionally injects the windowed-mode patch.
	WMode bool
}

func (l *Injectory) Build(b *bot.Prepared, game *Game) (*Plan, error) {
	if err := requireFile(l.StarcraftExe, ""); err != nil {
		return nil, err
	}
	dataDir, bwapiDll, err := checkBotData(b)
	if err != nil {
		return nil, err
	}
	tool := filepath.Join(l.ToolsDir, injectoryExe)
	if err := requireFile(tool, antivirusHint); err != nil {
		return nil, err
	}

	ini := &bwapi.Ini{
		AIModule:         aiModulePath(b),
		TournamentModule: tournamentModulePath(b, dataDir),
		GameSpeed:        game.GameSpeed,
		AutoMenu: &bwapi.AutoMenu{
			CharacterName: b.Name,
			Race:          b.Race,
			GameName:      game.GameName,
			Host:          game.Host,
			Map:           game.Map,
			PlayerCount:   game.PlayerCount,
		},
	}
	iniPath, err := ini.WriteFile(dataDir)
	if err != nil {
		return nil, err
	}

	program, args := l.Wrapper.Wrap(tool)
	args = append(args,
		"-l", l.StarcraftExe,
		"-i", bwapiDll,
	)
	if l.WMode {
		args = append(args, filepath.Join(l.ToolsDir, wmodeDll))
	}
	args = append(args, "--wait-for-exit", "--kill-on-exit")

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

var _ Builder = (*Injectory)(nil)

func (l *Injectory) String() string {
	return fmt.Sprintf("injectory(%s)", l.StarcraftExe)
}
