package system

import (
	"time"

	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/net"
)

// OutputSystem flushes every session's buffered packets to its write
// queue. Phase 4 (Output): everything the tick produced goes out together.
type OutputSystem struct {
	store *net.SessionStore
}

func NewOutputSystem(store *net.SessionStore) *OutputSystem {
	return &OutputSystem{store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
