package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Material IDs baked into generated payloads. The yaml table describes
// them; the IDs themselves are wire format and never change.
const (
	MatAir   byte = 0
	MatStone byte = 1
	MatDirt  byte = 2
	MatGrass byte = 3
	MatWater byte = 4
)

type MaterialDef struct {
	ID    uint8  `yaml:"id"`
	Name  string `yaml:"name"`
	Solid bool   `yaml:"solid"`
}

// MaterialTable maps material IDs to their definitions.
type MaterialTable struct {
	byID map[byte]MaterialDef
}

func LoadMaterials(path string) (*MaterialTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read materials %s: %w", path, err)
	}
	var defs []MaterialDef
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse materials %s: %w", path, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("materials %s: empty table", path)
	}

	t := &MaterialTable{byID: make(map[byte]MaterialDef, len(defs))}
	for _, d := range defs {
		if _, dup := t.byID[d.ID]; dup {
			return nil, fmt.Errorf("materials %s: duplicate id %d", path, d.ID)
		}
		t.byID[d.ID] = d
	}
	if _, ok := t.byID[MatAir]; !ok {
		return nil, fmt.Errorf("materials %s: missing air (id 0)", path)
	}
	return t, nil
}

// DefaultMaterials is the built-in table used when no yaml override exists.
func DefaultMaterials() *MaterialTable {
	return &MaterialTable{byID: map[byte]MaterialDef{
		MatAir:   {ID: MatAir, Name: "air", Solid: false},
		MatStone: {ID: MatStone, Name: "stone", Solid: true},
		MatDirt:  {ID: MatDirt, Name: "dirt", Solid: true},
		MatGrass: {ID: MatGrass, Name: "grass", Solid: true},
		MatWater: {ID: MatWater, Name: "water", Solid: false},
	}}
}

// Solid reports whether the material blocks movement. Unknown IDs are
// treated as solid so corrupt payloads fail closed.
func (t *MaterialTable) Solid(id byte) bool {
	d, ok := t.byID[id]
	if !ok {
		return true
	}
	return d.Solid
}

func (t *MaterialTable) Name(id byte) string {
	return t.byID[id].Name
}

func (t *MaterialTable) Count() int {
	return len(t.byID)
}
