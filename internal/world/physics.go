package world

// Walking and jumping tuning. The client renders whatever the server says,
// so these only need to feel reasonable.
const (
	walkSpeed = 4.5 // m/s
	jumpSpeed = 7.0 // m/s upward
)

// StepPlayer advances one player's body by dt seconds against its owner's
// resident terrain. solid maps a material ID to collidability. Returns true
// when the position changed.
//
// While the column under the player is not yet resident, gravity is held
// off so an observer never falls through terrain that is still streaming in.
func StepPlayer(p *PlayerInfo, store *OwnerStore, solid func(byte) bool, gravity, dt float64) bool {
	if store == nil || dt <= 0 {
		return false
	}
	before := p.Pos

	p.Vel.X = p.Walk.X * walkSpeed
	p.Vel.Z = p.Walk.Z * walkSpeed

	if p.IsJumping && p.OnGround {
		p.Vel.Y = jumpSpeed
		p.OnGround = false
	}

	feet := func(pos Vec3) (byte, bool) {
		return store.MaterialAt(int32(floorF(pos.X)), int32(floorF(pos.Y-0.01)), int32(floorF(pos.Z)))
	}

	if _, loaded := feet(p.Pos); loaded {
		if !p.OnGround {
			p.Vel.Y += gravity * dt
		}
	} else {
		p.Vel.Y = 0
	}

	p.Pos = p.Pos.Add(p.Vel.Scale(dt))

	// Ground resolution: if the voxel under the new feet position is solid,
	// snap to its top surface.
	if m, loaded := feet(p.Pos); loaded {
		if solid(m) {
			p.Pos.Y = floorF(p.Pos.Y-0.01) + 1
			p.Vel.Y = 0
			p.OnGround = true
		} else {
			p.OnGround = false
		}
	}

	moved := p.Pos != before
	if moved {
		p.Dirty = true
	}
	return moved
}
