package match

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bwshotgun/bot"
	"bwshotgun/gametable"
	"bwshotgun/launch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBuilder returns plans that run real (short-lived or sleeping) shell
// commands instead of the engine and records every build call.
type stubBuilder struct {
	program string
	args    []string

	builtBots  []string
	builtGames []launch.Game
}

func (s *stubBuilder) Build(b *bot.Prepared, game *launch.Game) (*launch.Plan, error) {
	s.builtBots = append(s.builtBots, b.Name)
	s.builtGames = append(s.builtGames, *game)
	return &launch.Plan{
		Program: s.program,
		Args:    s.args,
		Dir:     b.WorkingDir,
		BotName: b.Name,
		Host:    game.Host,
	}, nil
}

type tableFile struct {
	t    *testing.T
	path string
}

func newTableFile(t *testing.T) *tableFile {
	return &tableFile{t: t, path: filepath.Join(t.TempDir(), gametable.SegmentName)}
}

// write publishes slots the way the engine would; pids are non-zero,
// connected flags as given.
func (tf *tableFile) write(connected ...bool) {
	tf.t.Helper()
	data := make([]byte, gametable.TableSize)
	slotSize := gametable.TableSize / gametable.SlotCount
	for i, c := range connected {
		rec := data[i*slotSize:]
		binary.LittleEndian.PutUint32(rec, uint32(1000+i))
		if c {
			rec[4] = 1
		}
		binary.LittleEndian.PutUint32(rec[8:], 1)
	}
	require.NoError(tf.t, os.WriteFile(tf.path, data, 0644))
}

func makePrepared(t *testing.T, name string, kind bot.ArtifactKind, headful bool) *bot.Prepared {
	t.Helper()
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	require.NoError(t, os.MkdirAll(logDir, 0755))

	var binaryPath string
	switch kind {
	case bot.NativeExecutable:
		// A real runnable client standing in for a bot executable.
		binaryPath = filepath.Join(dir, name+".exe")
		require.NoError(t, os.WriteFile(binaryPath, []byte("#!/bin/sh\nsleep 30\n"), 0755))
	case bot.ScriptArchive:
		binaryPath = filepath.Join(dir, name+".jar")
		require.NoError(t, os.WriteFile(binaryPath, []byte("x"), 0644))
	default:
		binaryPath = filepath.Join(dir, name+".dll")
		require.NoError(t, os.WriteFile(binaryPath, []byte("x"), 0644))
	}

	return &bot.Prepared{
		Name:       name,
		Race:       bot.RaceZerg,
		Binary:     bot.Artifact{Kind: kind, Path: binaryPath},
		Headful:    headful,
		WorkingDir: dir,
		LogDir:     logDir,
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func killAll(instances []*Instance) {
	for _, instance := range instances {
		_ = instance.Engine.Kill()
		if instance.Client != nil {
			_ = instance.Client.Kill()
		}
	}
}

func TestLaunchAllEndToEnd(t *testing.T) {
	// Two bots, player count 2: A is engine-hosted and hosts with the
	// map; B is a separate executable joining afterwards.
	table := newTableFile(t)
	headless := &stubBuilder{program: "sleep", args: []string{"30"}}

	orchestrator := &Orchestrator{
		Reader:       gametable.NewReader(table.path),
		Headless:     headless,
		Injected:     &stubBuilder{program: "sleep", args: []string{"30"}},
		Game:         launch.Game{Map: "maps/(2)Destination.scx", GameName: "shotgun", PlayerCount: 2},
		PollInterval: 10 * time.Millisecond,
		PollAttempts: 300,
	}

	botA := makePrepared(t, "alpha", bot.DynamicModule, false)
	botB := makePrepared(t, "beta", bot.NativeExecutable, false)

	// A's engine opens a slot, then B's client registers as connected.
	table.write(false)
	go func() {
		time.Sleep(300 * time.Millisecond)
		table.write(true)
	}()

	// Input order deliberately wrong: B first. The orchestrator must
	// reorder so the engine-hosted bot launches before the separate
	// executable.
	instances, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botB, botA})
	t.Cleanup(func() { killAll(instances) })
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, headless.builtBots)

	require.Len(t, headless.builtGames, 2)
	assert.True(t, headless.builtGames[0].Host, "first participant hosts")
	assert.Equal(t, "maps/(2)Destination.scx", headless.builtGames[0].Map)
	assert.Equal(t, 2, headless.builtGames[0].PlayerCount)
	assert.False(t, headless.builtGames[1].Host, "host role demoted after first launch")

	require.Len(t, instances, 2)
	assert.Equal(t, "alpha", instances[0].BotName)
	assert.Nil(t, instances[0].Client, "engine-hosted bot has no client process")
	assert.Equal(t, "beta", instances[1].BotName)
	require.NotNil(t, instances[1].Client, "separate executable runs as its own process")
	assert.False(t, instances[1].Client.Exited())
}

func TestLaunchAllHumanHostNoHostRole(t *testing.T) {
	table := newTableFile(t)
	headless := &stubBuilder{program: "sleep", args: []string{"30"}}

	orchestrator := &Orchestrator{
		Reader:    gametable.NewReader(table.path),
		Headless:  headless,
		Injected:  &stubBuilder{program: "sleep", args: []string{"30"}},
		Game:      launch.Game{GameName: "humans-game", PlayerCount: 2},
		HumanHost: true,
	}

	botA := makePrepared(t, "alpha", bot.DynamicModule, false)
	instances, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botA})
	t.Cleanup(func() { killAll(instances) })
	require.NoError(t, err)

	require.Len(t, headless.builtGames, 1)
	assert.False(t, headless.builtGames[0].Host, "with a human host nobody else hosts")
	assert.Equal(t, "humans-game", headless.builtGames[0].GameName)
}

func TestLaunchAllHeadfulHostRenamesGame(t *testing.T) {
	table := newTableFile(t)
	headless := &stubBuilder{program: "sleep", args: []string{"30"}}
	injected := &stubBuilder{program: "sleep", args: []string{"30"}}

	orchestrator := &Orchestrator{
		Reader:   gametable.NewReader(table.path),
		Headless: headless,
		Injected: injected,
		Game:     launch.Game{Map: "maps/(2)Destination.scx", GameName: "shotgun", PlayerCount: 2},
	}

	botA := makePrepared(t, "alpha", bot.DynamicModule, true)
	botB := makePrepared(t, "beta", bot.DynamicModule, false)

	instances, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botA, botB})
	t.Cleanup(func() { killAll(instances) })
	require.NoError(t, err)

	require.Len(t, injected.builtGames, 1)
	assert.Equal(t, "alpha", injected.builtGames[0].GameName,
		"LAN games can only carry the hosting player's name")
	require.Len(t, headless.builtGames, 1)
	assert.Equal(t, "alpha", headless.builtGames[0].GameName,
		"joiners must follow the renamed game")
}

func TestLaunchAllConnectionTimeout(t *testing.T) {
	// The slot stays free but no client ever registers: the wait must
	// fail with a timeout error, not report silent success.
	table := newTableFile(t)
	table.write(false)

	orchestrator := &Orchestrator{
		Reader:       gametable.NewReader(table.path),
		Headless:     &stubBuilder{program: "sleep", args: []string{"30"}},
		Injected:     &stubBuilder{program: "sleep", args: []string{"30"}},
		Game:         launch.Game{Map: "m", GameName: "g", PlayerCount: 1},
		PollInterval: 5 * time.Millisecond,
		PollAttempts: 5,
	}

	botB := makePrepared(t, "beta", bot.NativeExecutable, false)
	instances, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botB})
	t.Cleanup(func() { killAll(instances) })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not connect")
	assert.Contains(t, err.Error(), "beta")
}

func TestLaunchAllEngineDiedDuringReadinessWait(t *testing.T) {
	table := newTableFile(t)

	orchestrator := &Orchestrator{
		Reader:       gametable.NewReader(table.path),
		Headless:     &stubBuilder{program: "sh", args: []string{"-c", "exit 1"}},
		Injected:     &stubBuilder{program: "sleep", args: []string{"30"}},
		Game:         launch.Game{Map: "m", GameName: "g", PlayerCount: 1},
		PollInterval: 5 * time.Millisecond,
		PollAttempts: 100,
	}

	botB := makePrepared(t, "beta", bot.NativeExecutable, false)
	instances, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botB})
	t.Cleanup(func() { killAll(instances) })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine process died")
}

func TestLaunchAllClientDiedDuringConnectionWait(t *testing.T) {
	table := newTableFile(t)
	table.write(false)

	dir := t.TempDir()
	// Client dies immediately instead of connecting.
	clientPath := filepath.Join(dir, "crasher.exe")
	require.NoError(t, os.WriteFile(clientPath, []byte("#!/bin/sh\nexit 3\n"), 0755))

	logDir := filepath.Join(dir, "logs")
	require.NoError(t, os.MkdirAll(logDir, 0755))

	botB := &bot.Prepared{
		Name:       "beta",
		Binary:     bot.Artifact{Kind: bot.NativeExecutable, Path: clientPath},
		WorkingDir: dir,
		LogDir:     logDir,
	}

	orchestrator := &Orchestrator{
		// Readiness must still pass, the table above publishes a waiting slot.
		Reader:       gametable.NewReader(table.path),
		Headless:     &stubBuilder{program: "sleep", args: []string{"30"}},
		Injected:     &stubBuilder{program: "sleep", args: []string{"30"}},
		Game:         launch.Game{Map: "m", GameName: "g", PlayerCount: 1},
		PollInterval: 5 * time.Millisecond,
		PollAttempts: 200,
	}

	instances, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botB})
	t.Cleanup(func() { killAll(instances) })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "client process died")
}

func TestLaunchAllBuildErrorNamesBot(t *testing.T) {
	table := newTableFile(t)
	failing := &failingBuilder{}

	orchestrator := &Orchestrator{
		Reader:   gametable.NewReader(table.path),
		Headless: failing,
		Injected: failing,
		Game:     launch.Game{Map: "m", GameName: "g", PlayerCount: 1},
	}

	botA := makePrepared(t, "alpha", bot.DynamicModule, false)
	_, err := orchestrator.LaunchAll(testContext(t), []*bot.Prepared{botA})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "StarCraft.exe")
}

type failingBuilder struct{}

func (f *failingBuilder) Build(*bot.Prepared, *launch.Game) (*launch.Plan, error) {
	return nil, fmt.Errorf("could not find 'StarCraft.exe'")
}
