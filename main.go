package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"bwshotgun/applog"
	"bwshotgun/bot"
	"bwshotgun/bwapi"
	"bwshotgun/config"
	"bwshotgun/gametable"
	"bwshotgun/launch"
	"bwshotgun/match"
	"bwshotgun/setup"

	"go.uber.org/zap"
	"resty.dev/v3"
)

// expectedSnpSize is the patched SNP_DirectIP.snp; the stock one caps a
// LAN game at about 6 participants.
const expectedSnpSize = 46100

type launchArgs struct {
	BaseDir    string
	Map        string
	GameName   string
	HumanHost  bool
	HumanSpeed bool
	LogLevel   int
	Bots       []string
}

func main() {
	baseDir := flag.String(
		"base", defaultBaseDir(), "The bwshotgun folder containing bots/, tools/ and the config files")
	mapPath := flag.String(
		"map", "", "Path of the map to host, relative to the engine folder")
	gameName := flag.String(
		"game-name", "", "LAN game name, defaults to 'shotgun'")
	humanHost := flag.Bool(
		"human-host", false, "A human hosts the game; all bots join (select Local PC network)")
	humanSpeed := flag.Bool(
		"human-speed", false, "Run the game at human-watchable speed")
	logLevel := flag.Int(
		"log-level", 0, "Log level: -1 - Debug, 0 - Info, 1 - Warn, 2 - Error")

	flag.Parse()

	args := &launchArgs{
		BaseDir:    *baseDir,
		Map:        *mapPath,
		GameName:   *gameName,
		HumanHost:  *humanHost,
		HumanSpeed: *humanSpeed,
		LogLevel:   *logLevel,
		Bots:       flag.Args(),
	}

	if err := applog.Initialize(filepath.Join(args.BaseDir, "logs"), args.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer applog.Shutdown()
	applog.LogStartup(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args); err != nil {
		applog.Error("Match setup failed", zap.Error(err))
		applog.Shutdown()
		os.Exit(1)
	}
}

func run(ctx context.Context, args *launchArgs) error {
	shotgun, err := config.LoadShotgun(filepath.Join(args.BaseDir, "shotgun.toml"))
	if err != nil {
		return err
	}

	game, err := loadGameConfig(args)
	if err != nil {
		return err
	}

	client := resty.New()
	defer func(client *resty.Client) {
		_ = client.Close()
	}(client)
	downloadDir := filepath.Join(args.BaseDir, "downloads")

	starcraftDir := shotgun.StarcraftPath
	if starcraftDir == "" {
		starcraftDir, err = setup.StarcraftComponent(args.BaseDir).Provide(client, downloadDir)
		if err != nil {
			return fmt.Errorf("could not find a StarCraft installation: %w", err)
		}
	}
	starcraftExe := filepath.Join(starcraftDir, "StarCraft.exe")
	checkSnp(starcraftDir)

	reader := gametable.NewReader(gametable.DefaultPath())
	defer func(reader *gametable.Reader) {
		_ = reader.Close()
	}(reader)
	warnStaleSlots(reader)

	prepared, err := prepareBots(args.BaseDir, game)
	if err != nil {
		return err
	}

	javaPath := shotgun.JavaPath
	if javaPath == "" && needsJava(prepared) {
		jreDir, err := setup.JavaComponent(args.BaseDir).Provide(client, downloadDir)
		if err != nil {
			return fmt.Errorf("could not find a Java runtime for jar bots: %w", err)
		}
		javaPath = setup.JavaExecutable(jreDir)
	}

	gameSpeed := 0
	if game.HumanSpeed {
		gameSpeed = -1
	}
	gameNameOrDefault := game.GameName
	if gameNameOrDefault == "" {
		gameNameOrDefault = "shotgun"
	}

	toolsDir := filepath.Join(args.BaseDir, "tools")
	wrapper := launch.DefaultWrapper()
	orchestrator := &match.Orchestrator{
		Reader: reader,
		Headless: &launch.BwHeadless{
			StarcraftExe: starcraftExe,
			ToolsDir:     toolsDir,
			Wrapper:      wrapper,
		},
		Injected: &launch.Injectory{
			StarcraftExe: starcraftExe,
			ToolsDir:     toolsDir,
			Wrapper:      wrapper,
			WMode:        true,
		},
		Java: javaPath,
		Game: launch.Game{
			Map:            game.Map,
			GameName:       gameNameOrDefault,
			PlayerCount:    len(game.Bots),
			GameSpeed:      gameSpeed,
			LatencyFrames:  game.LatencyFrames,
			TimeoutAtFrame: game.TimeoutAtFrame,
		},
		HumanHost: game.HumanHost,
	}

	instances, err := orchestrator.LaunchAll(ctx, prepared)
	if err != nil {
		// Processes launched so far keep running; aborting the remaining
		// launches is all the cleanup there is.
		return err
	}

	supervisor := &match.Supervisor{}
	if err := supervisor.Run(ctx, instances); err != nil {
		return err
	}

	applog.Info("Done")
	return nil
}

// loadGameConfig builds the match description from flags when bots are
// given on the command line, from game.toml otherwise.
func loadGameConfig(args *launchArgs) (*config.Game, error) {
	if len(args.Bots) == 0 {
		return config.LoadGame(filepath.Join(args.BaseDir, "game.toml"))
	}

	game := &config.Game{
		Map:           args.Map,
		GameName:      args.GameName,
		HumanHost:     args.HumanHost,
		HumanSpeed:    args.HumanSpeed,
		LatencyFrames: 3,
	}
	for _, name := range args.Bots {
		game.Bots = append(game.Bots, config.BotSlot{Name: name})
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}
	return game, nil
}

func prepareBots(baseDir string, game *config.Game) ([]*bot.Prepared, error) {
	seen := make(map[string]struct{}, len(game.Bots))
	prepared := make([]*bot.Prepared, 0, len(game.Bots))

	for _, slot := range game.Bots {
		botDir := filepath.Join(baseDir, "bots", slot.Name)
		definition, err := config.LoadBotDefinition(botDir)
		if err != nil {
			return nil, err
		}

		race := definition.Race
		if slot.Race != nil {
			if definition.Race != bot.RaceRandom && *slot.Race != definition.Race {
				applog.Warn("Bot is configured to play a race differing from its default",
					zap.String("bot", slot.Name),
					zap.Stringer("configured", *slot.Race),
					zap.Stringer("default", definition.Race))
			}
			race = *slot.Race
		}

		p, err := bot.Prepare(botDir, bot.PrepareOptions{
			Name:       slot.Name,
			PlayerName: slot.PlayerName,
			Race:       race,
			Headful:    slot.Headful,
			Executable: definition.Executable,
		})
		if err != nil {
			return nil, err
		}
		resolveTournamentModule(p)

		if _, dup := seen[p.Name]; dup {
			applog.Warn("Bot was added multiple times; all instances will share "+
				"read/write/log folders and headful mode will not work as expected",
				zap.String("bot", p.Name))
		}
		seen[p.Name] = struct{}{}

		prepared = append(prepared, p)
	}
	return prepared, nil
}

// resolveTournamentModule matches a module to the bot's BWAPI release.
// Running without one is fine; a mismatched module would crash the engine.
func resolveTournamentModule(p *bot.Prepared) {
	dataDir := bot.BWAPIDataDir(p.WorkingDir)
	version, ok, err := bwapi.DetectVersion(filepath.Join(dataDir, "BWAPI.dll"))
	if err != nil {
		applog.Warn("Could not detect BWAPI version",
			zap.String("bot", p.Name),
			zap.Error(err))
		return
	}
	if !ok || version.TournamentModule == "" {
		applog.Debug("No tournament module for this BWAPI release",
			zap.String("bot", p.Name))
		return
	}
	if _, err := os.Stat(filepath.Join(dataDir, version.TournamentModule)); err != nil {
		applog.Warn("Tournament module for this BWAPI release is not installed",
			zap.String("bot", p.Name),
			zap.String("bwapiVersion", version.Version),
			zap.String("module", version.TournamentModule))
		return
	}
	p.TournamentModule = version.TournamentModule
}

func needsJava(prepared []*bot.Prepared) bool {
	for _, p := range prepared {
		if p.Binary.Kind == bot.ScriptArchive {
			return true
		}
	}
	return false
}

func checkSnp(starcraftDir string) {
	snp := filepath.Join(starcraftDir, "SNP_DirectIP.snp")
	info, err := os.Stat(snp)
	if err != nil {
		applog.Warn("Could not find 'SNP_DirectIP.snp' in the StarCraft installation, "+
			"please copy the provided one or install BWAPI",
			zap.String("path", snp))
		return
	}
	if info.Size() != expectedSnpSize {
		applog.Warn("The installed 'SNP_DirectIP.snp' might not support more than ~6 bots "+
			"per game; overwrite it with the included one to support more",
			zap.String("path", snp),
			zap.Int64("size", info.Size()))
	}
}

// warnStaleSlots flags occupied table entries from unrelated processes;
// they interfere with game creation but may be legitimate, so this never
// aborts.
func warnStaleSlots(reader *gametable.Reader) {
	table, err := reader.Snapshot()
	if err != nil {
		return
	}
	for _, slot := range table.Slots {
		if slot.Connected && slot.ServerProcessID != 0 {
			applog.Warn("A process is in the game table already and will interfere "+
				"with game creation",
				zap.Uint32("pid", slot.ServerProcessID))
		}
	}
}

// defaultBaseDir is the folder the executable sits in, which is how the
// release archive is laid out.
func defaultBaseDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
