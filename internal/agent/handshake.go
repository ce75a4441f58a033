package agent

import (
	"context"

	"github.com/gooofy/ftsagent/internal/wire"
)

// cloantoGreeting is the fixed 7-byte INIT reply payload (spec §4.5, §8
// scenario 1).
var cloantoGreeting = []byte("Cloanto")

func (a *Agent) handleInit(ctx context.Context) error {
	return a.framer.WriteMessage(ctx, wire.OpInit, cloantoGreeting)
}
