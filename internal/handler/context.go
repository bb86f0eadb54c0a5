package handler

import (
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/config"
	"github.com/terrastream/server/internal/core/event"
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
	"github.com/terrastream/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State
	Sessions *net.SessionStore
	Loader   *world.Loader
	Streamer *world.Streamer
	Sun      *world.Sun
	Bus      *event.Bus
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Handshake phase
	reg.Register(packet.C_OPCODE_HELLO,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleHello(sess.(*net.Session), r, deps)
		},
	)

	// In-world phase
	inWorldStates := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_WALK, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleWalk(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ROTATE, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleRotate(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_START_JUMP, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleStartJump(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_STOP_JUMP, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleStopJump(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_REQUEST_BLOCK, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleRequestBlock(sess.(*net.Session), r, deps)
		},
	)

	// Always allowed (any active state)
	aliveStates := []packet.SessionState{packet.StateHandshake, packet.StateInWorld}
	reg.Register(packet.C_OPCODE_ALIVE, aliveStates,
		func(sess any, r *packet.Reader) {
			// Keep-alive: no-op, just prevents idle timeout
		},
	)
	reg.Register(packet.C_OPCODE_QUIT, aliveStates,
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}
