package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/terrastream/server/internal/world"
)

type LODBand struct {
	MaxDistance int32 `yaml:"max_distance"`
	LOD         uint8 `yaml:"lod"`
}

// LODBands maps observer distance (in blocks, Chebyshev) to the level of
// detail requested at that distance. Bands are sorted by MaxDistance;
// distances past the last band use its LOD.
type LODBands struct {
	bands []LODBand
}

func LoadLODBands(path string) (*LODBands, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lod bands %s: %w", path, err)
	}
	var bands []LODBand
	if err := yaml.Unmarshal(raw, &bands); err != nil {
		return nil, fmt.Errorf("parse lod bands %s: %w", path, err)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("lod bands %s: empty table", path)
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].MaxDistance < bands[j].MaxDistance })
	for _, b := range bands {
		if world.LODIndex(b.LOD) > world.MaxLOD {
			return nil, fmt.Errorf("lod bands %s: lod %d exceeds max %d", path, b.LOD, world.MaxLOD)
		}
	}
	return &LODBands{bands: bands}, nil
}

// DefaultLODBands mirrors the shipped yaml: full detail out to distance 2,
// then coarsening toward the horizon.
func DefaultLODBands() *LODBands {
	return &LODBands{bands: []LODBand{
		{MaxDistance: 2, LOD: 0},
		{MaxDistance: 4, LOD: 1},
		{MaxDistance: 6, LOD: 2},
		{MaxDistance: 1 << 30, LOD: 3},
	}}
}

// ForDistance returns the LOD for a block at the given Chebyshev distance
// from the observer's center.
func (l *LODBands) ForDistance(dist int32) world.LODIndex {
	for _, b := range l.bands {
		if dist <= b.MaxDistance {
			return world.LODIndex(b.LOD)
		}
	}
	return world.LODIndex(l.bands[len(l.bands)-1].LOD)
}
