package handler

import (
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
	"github.com/terrastream/server/internal/world"
)

// HandleRequestBlock processes C_REQUEST_BLOCK: an explicit client fetch of
// one block's content. Deduplicated against the observer's own resident
// loads by the loader; the reply is a one-shot S_ADD_BLOCK with no
// server-side residency.
func HandleRequestBlock(sess *net.Session, r *packet.Reader, deps *Deps) {
	pos := geom.BlockPos{X: r.ReadD(), Y: r.ReadD(), Z: r.ReadD()}
	lod := world.LODIndex(r.ReadC())

	if lod > world.MaxLOD {
		deps.Log.Debug("方塊請求的細節層級無效",
			zap.Uint64("session", sess.ID),
			zap.Uint8("lod", uint8(lod)),
		)
		return
	}

	deps.Loader.Request(pos, lod, world.ClientReason(sess.ID))
}
