package match

import (
	"context"
	"time"

	"bwshotgun/applog"

	"go.uber.org/zap"
)

// DefaultSupervisorTick is coarse on purpose; nothing downstream reacts
// faster than the engine's own shutdown.
const DefaultSupervisorTick = time.Second

// Supervisor owns the launched instances and blocks until every engine
// process has exited. When an engine dies its paired client is killed
// right away: an orphaned client keeps spamming the shared slot table and
// would disturb any following game.
type Supervisor struct {
	Tick time.Duration
}

func (s *Supervisor) tick() time.Duration {
	if s.Tick <= 0 {
		return DefaultSupervisorTick
	}
	return s.Tick
}

// Run drains the instance set. There is no overall timeout: a match runs
// until the engines decide it is over.
func (s *Supervisor) Run(ctx context.Context, instances []*Instance) error {
	live := make([]*Instance, len(instances))
	copy(live, instances)

	for len(live) > 0 {
		for i := len(live) - 1; i >= 0; i-- {
			instance := live[i]
			if !instance.Engine.Exited() {
				continue
			}

			if instance.Client != nil && !instance.Client.Exited() {
				applog.Info("Engine process exited, killing client",
					zap.String("bot", instance.BotName),
					zap.Int("clientPid", instance.Client.Pid()))
				if err := instance.Client.Kill(); err != nil {
					applog.Warn("Could not kill client process",
						zap.String("bot", instance.BotName),
						zap.Error(err))
				}
			}

			live = append(live[:i], live[i+1:]...)
			applog.Info("Bot finished",
				zap.String("bot", instance.BotName),
				zap.Int("botsRemaining", len(live)))
		}

		if len(live) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.tick()):
		}
	}
	return nil
}
