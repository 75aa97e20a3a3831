package world

import (
	"context"
	"time"

	"wearcraft.dev/internal/protocol"
)

// Run drives the world loop until the context ends or Stop is called.
// Inputs accumulate between ticks and are applied at the tick boundary, so
// arrival order within a tick is preserved.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingLeaves []string
	var pendingStates []protocol.PlayerStateMsg
	var pendingCommands []CommandRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case s := <-w.playerState:
			pendingStates = append(pendingStates, s)
		case req := <-w.inbox:
			pendingCommands = append(pendingCommands, req)
		case respCh := <-w.exportReq:
			respCh <- w.loader.Export()
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingStates, pendingCommands)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingStates = pendingStates[:0]
			pendingCommands = pendingCommands[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick with the same ordering as
// the live loop. For tests and replay tooling; call from one goroutine only.
func (w *World) StepOnce(commands ...CommandRequest) (tick uint64, digest string) {
	w.step(nil, nil, nil, commands)
	tick = w.tick.Load()
	return tick, w.stateDigest(tick)
}
