package sim

import "sort"

// BlockKind is a palette entry
type BlockKind struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// Solid blocks can be stood on and placed against
	Solid bool `json:"solid" yaml:"solid"`
	// Unbreakable blocks cannot be dug
	Unbreakable bool `json:"unbreakable,omitempty" yaml:"unbreakable,omitempty"`
	// Drop is the item name dug blocks yield, empty for none
	Drop string `json:"drop,omitempty" yaml:"drop,omitempty"`
}

const (
	Air = "air"

	// Validation constants
	MinWorldY        = -64
	MaxWorldY        = 320
	MaxRegionVolume  = 1 << 20
	MaxInventorySize = 36
	MaxStackSize     = 64
	HotbarFirstSlot  = 36
)

// Palette resolves block names and ids
type Palette struct {
	byName map[string]BlockKind
	byID   map[int]BlockKind
}

// DefaultPalette holds the blocks the simulated world knows about. Ids follow
// the 1.20 registry numbering for the common blocks.
func DefaultPalette() *Palette {
	return NewPalette([]BlockKind{
		{ID: 0, Name: Air},
		{ID: 1, Name: "stone", Solid: true, Drop: "cobblestone"},
		{ID: 8, Name: "grass_block", Solid: true, Drop: "dirt"},
		{ID: 9, Name: "dirt", Solid: true, Drop: "dirt"},
		{ID: 12, Name: "cobblestone", Solid: true, Drop: "cobblestone"},
		{ID: 13, Name: "oak_planks", Solid: true, Drop: "oak_planks"},
		{ID: 25, Name: "bedrock", Solid: true, Unbreakable: true},
		{ID: 32, Name: "water"},
		{ID: 34, Name: "lava"},
		{ID: 35, Name: "sand", Solid: true, Drop: "sand"},
		{ID: 38, Name: "gravel", Solid: true, Drop: "gravel"},
		{ID: 43, Name: "coal_ore", Solid: true, Drop: "coal"},
		{ID: 44, Name: "iron_ore", Solid: true, Drop: "raw_iron"},
		{ID: 49, Name: "oak_log", Solid: true, Drop: "oak_log"},
		{ID: 79, Name: "oak_leaves", Solid: true},
		{ID: 127, Name: "diamond_ore", Solid: true, Drop: "diamond"},
		{ID: 187, Name: "glass", Solid: true},
		{ID: 219, Name: "torch"},
	})
}

// NewPalette indexes kinds by name and id
func NewPalette(kinds []BlockKind) *Palette {
	p := &Palette{
		byName: make(map[string]BlockKind, len(kinds)),
		byID:   make(map[int]BlockKind, len(kinds)),
	}
	for _, k := range kinds {
		p.byName[k.Name] = k
		p.byID[k.ID] = k
	}
	return p
}

// Lookup returns the kind named name
func (p *Palette) Lookup(name string) (BlockKind, bool) {
	k, ok := p.byName[name]
	return k, ok
}

// ByID returns the kind with the given id
func (p *Palette) ByID(id int) (BlockKind, bool) {
	k, ok := p.byID[id]
	return k, ok
}

// Names lists every block name in sorted order
func (p *Palette) Names() []string {
	names := make([]string, 0, len(p.byName))
	for n := range p.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
