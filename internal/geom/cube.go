package geom

import "fmt"

// BlockPos identifies a unit cell on the voxel grid.
// Value type — equality and map keys use exact integer comparison.
type BlockPos struct {
	X, Y, Z int32
}

func (p BlockPos) Add(dx, dy, dz int32) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Chebyshev returns the Chebyshev (max-axis) distance between two cells.
func Chebyshev(a, b BlockPos) int32 {
	d := absDiff(a.X, b.X)
	if dy := absDiff(a.Y, b.Y); dy > d {
		d = dy
	}
	if dz := absDiff(a.Z, b.Z); dz > d {
		d = dz
	}
	return d
}

func absDiff(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Region is the axis-aligned cube of cells within Chebyshev distance
// Radius of Center. Radius 0 is the single cell at Center.
type Region struct {
	Center BlockPos
	Radius int32
}

func (r Region) Contains(p BlockPos) bool {
	return Chebyshev(r.Center, p) <= r.Radius
}

// ShellSize returns the number of cells on the surface of a cube of the
// given radius: (2r+1)^3 - (2r-1)^3, or 1 for radius 0.
func ShellSize(radius int32) int {
	if radius == 0 {
		return 1
	}
	w := int64(2*radius + 1)
	return int(w*w*w - (w-2)*(w-2)*(w-2))
}

// CubeShell generates the cells at Chebyshev distance exactly radius from
// center. The three face-pair passes shrink their already-covered axes to
// the open interior range, so no cell is emitted twice:
//
//	±x faces: full y and z extent
//	±y faces: x limited to (-radius, radius), full z extent
//	±z faces: x and y limited to (-radius, radius)
//
// Negative radius is a contract violation and panics.
func CubeShell(center BlockPos, radius int32) []BlockPos {
	if radius < 0 {
		panic(fmt.Sprintf("geom: negative shell radius %d", radius))
	}
	if radius == 0 {
		return []BlockPos{center}
	}

	shell := make([]BlockPos, 0, ShellSize(radius))

	for _, dx := range [2]int32{-radius, radius} {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				shell = append(shell, center.Add(dx, dy, dz))
			}
		}
	}
	for dx := -radius + 1; dx <= radius-1; dx++ {
		for _, dy := range [2]int32{-radius, radius} {
			for dz := -radius; dz <= radius; dz++ {
				shell = append(shell, center.Add(dx, dy, dz))
			}
		}
	}
	for dx := -radius + 1; dx <= radius-1; dx++ {
		for dy := -radius + 1; dy <= radius-1; dy++ {
			for _, dz := range [2]int32{-radius, radius} {
				shell = append(shell, center.Add(dx, dy, dz))
			}
		}
	}

	return shell
}

// CubeDiff returns the cells inside the cube of the given radius centered
// at from but outside the one centered at to. The work is proportional to
// the swept boundary, not the cube volume: each axis pass (x, then y, then
// z) emits only the sub-slab vacated on that axis, with earlier axes
// restricted to the range still shared between from and to so nothing is
// counted twice. A cell vacated on more than one axis belongs to the first
// axis processed. CubeDiff(c, c, r) is empty.
func CubeDiff(from, to BlockPos, radius int32) []BlockPos {
	if radius < 0 {
		panic(fmt.Sprintf("geom: negative diff radius %d", radius))
	}

	var out []BlockPos

	x0, x1 := vacatedSpan(from.X, to.X, radius)
	out = appendBox(out,
		x0, x1,
		from.Y-radius, from.Y+radius,
		from.Z-radius, from.Z+radius,
	)

	sx0, sx1 := sharedSpan(from.X, to.X, radius)
	y0, y1 := vacatedSpan(from.Y, to.Y, radius)
	out = appendBox(out,
		sx0, sx1,
		y0, y1,
		from.Z-radius, from.Z+radius,
	)

	sy0, sy1 := sharedSpan(from.Y, to.Y, radius)
	z0, z1 := vacatedSpan(from.Z, to.Z, radius)
	out = appendBox(out,
		sx0, sx1,
		sy0, sy1,
		z0, z1,
	)

	return out
}

// vacatedSpan is the inclusive range of coordinates within radius of from
// on one axis but beyond radius of to. Empty (lo > hi) when the centers
// coincide on the axis.
func vacatedSpan(from, to, radius int32) (lo, hi int32) {
	if from < to {
		return from - radius, min(from+radius, to-radius-1)
	}
	return max(from-radius, to+radius+1), from + radius
}

// sharedSpan is the inclusive range covered by both the from- and
// to-centered extents on one axis.
func sharedSpan(from, to, radius int32) (lo, hi int32) {
	if from < to {
		return to - radius, from + radius
	}
	return from - radius, to + radius
}

func appendBox(out []BlockPos, x0, x1, y0, y1, z0, z1 int32) []BlockPos {
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				out = append(out, BlockPos{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}
