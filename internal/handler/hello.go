package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/terrastream/server/internal/core/event"
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
)

// HandleHello processes C_HELLO: protocol version check, owner lease, and
// the initial terrain fill around the spawn point.
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) {
	version := r.ReadH()
	name := r.ReadS()

	if version != packet.ProtocolVersion {
		deps.Log.Warn("協定版本不符，斷開連線",
			zap.Uint64("session", sess.ID),
			zap.Uint16("client_version", version),
			zap.Uint16("server_version", packet.ProtocolVersion),
		)
		sess.Close()
		return
	}
	if name == "" {
		name = fmt.Sprintf("observer-%d", sess.ID)
	}
	sess.ClientName = name

	p := deps.World.AddPlayer(sess, name)
	sess.OwnerID = uint32(p.OwnerID)

	sess.Send(BuildLeaseID(p.OwnerID, p.Pos))
	sess.Send(BuildUpdatePlayer(p))
	sess.Send(BuildUpdateSun(deps.Sun.Phase()))
	sess.SetState(packet.StateInWorld)

	// Initial fill: the whole cube around spawn, nearest shells first.
	deps.Streamer.Attach(p.OwnerID, deps.World.QuantizeCell(p.Pos))
	event.Emit(deps.Bus, event.ObserverJoined{SessionID: sess.ID, OwnerID: uint32(p.OwnerID)})

	deps.Log.Info(fmt.Sprintf("觀察者進入世界  session=%d  name=%s  owner=%d", sess.ID, name, p.OwnerID))
}
