// Package match drives a full bot match: launching every participant in
// order against the shared game table, then supervising the resulting
// process tree until the last engine process exits.
package match

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bwshotgun/applog"
	"bwshotgun/bot"
	"bwshotgun/gametable"
	"bwshotgun/launch"

	"go.uber.org/zap"
)

// Defaults for the bounded polling loops: 100ms x 100 gives each wait
// roughly ten seconds, matching how long a cold engine start takes.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultPollAttempts = 100
)

// Instance pairs one engine process with the bot's own process, which is
// nil when BWAPI loads the bot inside the engine. Owned by the supervisor
// once launched.
type Instance struct {
	BotName string
	Engine  *Process
	Client  *Process
}

// Orchestrator launches all bots of one match strictly sequentially:
// parallel launches would race each other for slots in the shared table.
type Orchestrator struct {
	Reader   *gametable.Reader
	Headless launch.Builder
	Injected launch.Builder

	// Java runs ScriptArchive bots; defaults to java.exe in PATH.
	Java string

	Game launch.Game
	// HumanHost skips launching a hosting engine; a human creates the
	// game and every bot joins it.
	HumanHost bool

	PollInterval time.Duration
	PollAttempts int
}

func (o *Orchestrator) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return o.PollInterval
}

func (o *Orchestrator) pollAttempts() int {
	if o.PollAttempts <= 0 {
		return DefaultPollAttempts
	}
	return o.PollAttempts
}

// LaunchAll starts every bot and returns the live instances. Any failure
// aborts the remaining launches and is returned; already-spawned processes
// keep running (no rollback), the caller decides what to do with them.
func (o *Orchestrator) LaunchAll(ctx context.Context, bots []*bot.Prepared) ([]*Instance, error) {
	// Engine-hosted bots must come up first: a separately-spawned client
	// can only connect to an engine slot that is already waiting.
	ordered := make([]*bot.Prepared, len(bots))
	copy(ordered, bots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].Binary.SeparateProcess() && ordered[j].Binary.SeparateProcess()
	})

	host := !o.HumanHost
	gameName := o.Game.GameName

	var instances []*Instance
	for _, b := range ordered {
		bctx := applog.AddContextFields(ctx,
			zap.String("bot", b.Name),
			zap.String("binary", b.Binary.Path),
		)

		builder := o.Headless
		if b.Headful {
			builder = o.Injected
			if host {
				// The engine cannot host a LAN game under a name other
				// than the player's, so every joiner follows suit.
				gameName = b.Name
			}
		}

		game := o.Game
		game.Host = host
		game.GameName = gameName

		instance, err := o.launchBot(bctx, b, builder, &game)
		if err != nil {
			return instances, err
		}
		instances = append(instances, instance)
		host = false
	}
	return instances, nil
}

func (o *Orchestrator) launchBot(
	ctx context.Context,
	b *bot.Prepared,
	builder launch.Builder,
	game *launch.Game,
) (*Instance, error) {
	logger := applog.FromContext(ctx)

	plan, err := builder.Build(b, game)
	if err != nil {
		return nil, fmt.Errorf("bot '%s': %w", b.Name, err)
	}

	if game.Host {
		logger.Info("Hosting game", zap.String("map", game.Map))
	} else {
		logger.Info("Joining game", zap.String("gameName", game.GameName))
	}

	// Baseline before the engine comes up; the connection wait later
	// compares against it instead of absolute counts, since unrelated
	// processes may occupy slots.
	baseline := 0
	if b.Binary.SeparateProcess() {
		baseline = o.connectedCount()
	}

	engine, err := startLogged(ctx,
		plan.Program, plan.Args, plan.Dir, plan.Env,
		b.LogDir, "game_out.log", "game_err.log")
	if err != nil {
		return nil, fmt.Errorf("bot '%s': could not start engine process "+
			"(maybe deleted or blocked by a virus scanner?): %v", b.Name, err)
	}
	logger.Debug("Engine process started", zap.Int("pid", engine.Pid()))

	if !b.Binary.SeparateProcess() {
		return &Instance{BotName: b.Name, Engine: engine}, nil
	}

	if err := o.waitForFreeSlot(ctx, b, engine); err != nil {
		return nil, err
	}

	client, err := o.startClient(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("bot '%s': could not start client process: %v", b.Name, err)
	}
	logger.Debug("Client process started", zap.Int("pid", client.Pid()))

	if err := o.waitForClientConnect(ctx, b, engine, client, baseline); err != nil {
		return nil, err
	}

	logger.Info("Client connected")
	return &Instance{BotName: b.Name, Engine: engine, Client: client}, nil
}

// waitForFreeSlot polls the game table until some engine instance is
// waiting for a client, meaning the just-launched server is ready to be
// joined.
func (o *Orchestrator) waitForFreeSlot(ctx context.Context, b *bot.Prepared, engine *Process) error {
	err := pollUntil(ctx, o.pollInterval(), o.pollAttempts(), func() (bool, error) {
		if engine.Exited() {
			return false, fmt.Errorf("bot '%s': engine process died before opening a slot", b.Name)
		}
		table, err := o.Reader.Snapshot()
		if err != nil {
			// Table not published yet; the engine is still starting up.
			return false, nil
		}
		return table.HasFreeSlot(), nil
	})
	if err == ErrRetryBudgetExhausted {
		return fmt.Errorf("bot '%s': timed out waiting for the engine to accept clients", b.Name)
	}
	return err
}

// waitForClientConnect polls until the client shows up as connected in the
// game table. Engine or client death is detected per tick and reported
// distinctly, so "crashed" is tellable apart from "never connected".
func (o *Orchestrator) waitForClientConnect(
	ctx context.Context,
	b *bot.Prepared,
	engine *Process,
	client *Process,
	baseline int,
) error {
	err := pollUntil(ctx, o.pollInterval(), o.pollAttempts(), func() (bool, error) {
		connected := o.connectedCount() > baseline
		if engine.Exited() {
			return false, fmt.Errorf("bot '%s': engine process died before the client connected", b.Name)
		}
		if client.Exited() {
			return false, fmt.Errorf("bot '%s': client process died before connecting", b.Name)
		}
		return connected, nil
	})
	if err == ErrRetryBudgetExhausted {
		return fmt.Errorf("bot '%s': client did not connect to the BWAPI server", b.Name)
	}
	return err
}

func (o *Orchestrator) connectedCount() int {
	table, err := o.Reader.Snapshot()
	if err != nil {
		return 0
	}
	return table.ConnectedCount()
}

func (o *Orchestrator) startClient(ctx context.Context, b *bot.Prepared) (*Process, error) {
	var program string
	var args []string
	switch b.Binary.Kind {
	case bot.ScriptArchive:
		program = o.Java
		if program == "" {
			program = "java.exe"
		}
		args = []string{"-jar", b.Binary.Path}
	case bot.NativeExecutable:
		program = b.Binary.Path
	default:
		return nil, fmt.Errorf("binary '%s' does not run as a separate process", b.Binary.Path)
	}

	return startLogged(ctx,
		program, args, b.WorkingDir, nil,
		b.LogDir, "bot_out.log", "bot_err.log")
}
