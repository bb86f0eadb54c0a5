package handler

import (
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
	"github.com/terrastream/server/internal/world"
)

// BuildLeaseID builds S_LEASE_ID: the owner lease and spawn position
// granted at handshake.
func BuildLeaseID(owner world.OwnerID, spawn world.Vec3) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LEASE_ID)
	w.WriteDU(uint32(owner))
	w.WriteF(float32(spawn.X))
	w.WriteF(float32(spawn.Y))
	w.WriteF(float32(spawn.Z))
	return w.Bytes()
}

// BuildUpdatePlayer builds S_UPDATE_PLAYER: the authoritative position and
// velocity of one player body.
func BuildUpdatePlayer(p *world.PlayerInfo) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_UPDATE_PLAYER)
	w.WriteDU(uint32(p.OwnerID))
	w.WriteF(float32(p.Pos.X))
	w.WriteF(float32(p.Pos.Y))
	w.WriteF(float32(p.Pos.Z))
	w.WriteF(float32(p.Vel.X))
	w.WriteF(float32(p.Vel.Y))
	w.WriteF(float32(p.Vel.Z))
	return w.Bytes()
}

// BuildAddBlock builds S_ADD_BLOCK: one terrain block's content. The frame
// codec compresses the payload on the wire.
func BuildAddBlock(blk *world.Block) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ADD_BLOCK)
	w.WriteD(blk.Pos.X)
	w.WriteD(blk.Pos.Y)
	w.WriteD(blk.Pos.Z)
	w.WriteC(byte(blk.LOD))
	w.WriteH(uint16(blk.Edge))
	w.WriteBytes(blk.Materials)
	return w.Bytes()
}

// BuildUpdateSun builds S_UPDATE_SUN: the day/night phase in [0, 1).
func BuildUpdateSun(phase float32) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_UPDATE_SUN)
	w.WriteF(phase)
	return w.Bytes()
}

// Broadcast buffers a packet on every in-world session.
func Broadcast(store *net.SessionStore, data []byte) {
	store.ForEach(func(s *net.Session) {
		if s.State() == packet.StateInWorld {
			s.Send(data)
		}
	})
}
