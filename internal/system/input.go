package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/terrastream/server/internal/core/event"
	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
	"github.com/terrastream/server/internal/world"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	maxPerTick int
	worldState *world.State
	streamer   *world.Streamer
	bus        *event.Bus
	log        *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	maxPerTick int,
	worldState *world.State,
	streamer *world.Streamer,
	bus *event.Bus,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		worldState: worldState,
		streamer:   streamer,
		bus:        bus,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets from each session (up to maxPerTick per session)
	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			// Drain any remaining packets BEFORE teardown (e.g. C_QUIT sent
			// just before the socket died). Movement packets here still go
			// through the streamer so the final diff stays consistent.
			for i := 0; i < s.maxPerTick; i++ {
				select {
				case data := <-sess.InQueue:
					if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
						s.log.Debug("封包分派錯誤 (斷線中)",
							zap.Uint64("session", sess.ID),
							zap.Error(err),
						)
					}
				default:
					goto doneClosing
				}
			}
		doneClosing:
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}

		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Debug("封包分派錯誤",
						zap.Uint64("session", sess.ID),
						zap.Error(err),
					)
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}

	// 提前 flush：讓 Phase 0 產生的封包（租約、初始填充的方塊）
	// 立即進入 OutQueue，writeLoop 可在後續 Phase 運行時就開始發送。
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// handleDisconnect tears a session's world presence down: the observer is
// detached (releasing every block it holds), the player body removed, and
// in-flight generation for it left to complete as unreferenced no-ops.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	player := s.worldState.RemovePlayer(sess.ID)
	if player == nil {
		return // died during handshake, never entered the world
	}

	s.streamer.Detach(player.OwnerID)
	event.Emit(s.bus, event.ObserverLeft{SessionID: sess.ID, OwnerID: uint32(player.OwnerID)})

	s.log.Info("觀察者離開世界",
		zap.Uint64("session", sess.ID),
		zap.String("name", player.Name),
		zap.Uint32("owner", uint32(player.OwnerID)),
	)
}

// SessionCount returns the current number of active sessions.
func (s *InputSystem) SessionCount() int {
	return len(s.store.Raw())
}
