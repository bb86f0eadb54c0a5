package handler

import (
	"math"

	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
	"github.com/terrastream/server/internal/world"
)

// HandleWalk processes C_WALK: the client's walk intent as a world-space
// x/z vector. The server clamps the magnitude; the client never sets speed.
func HandleWalk(sess *net.Session, r *packet.Reader, deps *Deps) {
	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		return
	}

	wx := float64(r.ReadF())
	wz := float64(r.ReadF())
	if math.IsNaN(wx) || math.IsNaN(wz) || math.IsInf(wx, 0) || math.IsInf(wz, 0) {
		return
	}
	if mag := math.Sqrt(wx*wx + wz*wz); mag > 1 {
		wx /= mag
		wz /= mag
	}
	p.Walk = world.Vec3{X: wx, Z: wz}
}

// HandleRotate processes C_ROTATE: view orientation only, no physics effect.
func HandleRotate(sess *net.Session, r *packet.Reader, deps *Deps) {
	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		return
	}
	yaw := r.ReadF()
	pitch := r.ReadF()
	if math.IsNaN(float64(yaw)) || math.IsNaN(float64(pitch)) {
		return
	}
	p.Yaw = yaw
	p.Pitch = pitch
}

// HandleStartJump processes C_START_JUMP. The jump fires on the next
// physics step if the body is grounded.
func HandleStartJump(sess *net.Session, _ *packet.Reader, deps *Deps) {
	if p := deps.World.GetBySession(sess.ID); p != nil {
		p.IsJumping = true
	}
}

// HandleStopJump processes C_STOP_JUMP.
func HandleStopJump(sess *net.Session, _ *packet.Reader, deps *Deps) {
	if p := deps.World.GetBySession(sess.ID); p != nil {
		p.IsJumping = false
	}
}
