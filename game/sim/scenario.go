package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

// Point is an integer block coordinate as written in scenario files
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Vec returns the point as a world vector
func (p Point) Vec() bot.Vec3 {
	return bot.Vec3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

func pointOf(v bot.Vec3) Point {
	f := v.Floored()
	return Point{X: int(f.X), Y: int(f.Y), Z: int(f.Z)}
}

// Region fills the box between From and To (inclusive) with Block
type Region struct {
	From  Point  `json:"from" yaml:"from"`
	To    Point  `json:"to" yaml:"to"`
	Block string `json:"block" yaml:"block"`
}

// Volume returns the number of blocks in the region
func (r Region) Volume() int {
	dx := abs(r.To.X-r.From.X) + 1
	dy := abs(r.To.Y-r.From.Y) + 1
	dz := abs(r.To.Z-r.From.Z) + 1
	return dx * dy * dz
}

// PlacedBlock sets one block
type PlacedBlock struct {
	At    Point  `json:"at" yaml:"at"`
	Block string `json:"block" yaml:"block"`
}

// Stack is an inventory entry. Slot 0 means the next free hotbar slot.
type Stack struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
	Slot  int    `json:"slot,omitempty" yaml:"slot,omitempty"`
}

// Scenario describes a simulated world
type Scenario struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// Version is reported as the server version when the dial does not ask for one
	Version  string   `json:"version,omitempty" yaml:"version,omitempty"`
	GameMode string   `json:"game_mode" yaml:"game_mode"`
	Spawn    bot.Vec3 `json:"spawn" yaml:"spawn"`

	WalkSpeed    float64 `json:"walk_speed" yaml:"walk_speed"`
	FlySpeed     float64 `json:"fly_speed" yaml:"fly_speed"`
	Reach        float64 `json:"reach" yaml:"reach"`
	ViewDistance float64 `json:"view_distance" yaml:"view_distance"`
	// DigTime is how long one block takes to break
	DigTime time.Duration `json:"dig_time" yaml:"dig_time"`
	// Tick is the movement simulation step
	Tick time.Duration `json:"tick,omitempty" yaml:"tick,omitempty"`

	Regions   []Region      `json:"regions" yaml:"regions"`
	Blocks    []PlacedBlock `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Inventory []Stack       `json:"inventory,omitempty" yaml:"inventory,omitempty"`
}

// Game modes
const (
	Survival = "survival"
	Creative = "creative"
)

// Scenario defaults applied by ApplyDefaults
const (
	DefaultWalkSpeed    = 4.3
	DefaultFlySpeed     = 10.9
	DefaultReach        = 4.5
	DefaultViewDistance = 128
	DefaultDigTime      = 250 * time.Millisecond
	DefaultTick         = 50 * time.Millisecond
)

// ApplyDefaults fills zero-valued tuning fields
func (s *Scenario) ApplyDefaults() {
	if s.GameMode == "" {
		s.GameMode = Survival
	}
	if s.WalkSpeed == 0 {
		s.WalkSpeed = DefaultWalkSpeed
	}
	if s.FlySpeed == 0 {
		s.FlySpeed = DefaultFlySpeed
	}
	if s.Reach == 0 {
		s.Reach = DefaultReach
	}
	if s.ViewDistance == 0 {
		s.ViewDistance = DefaultViewDistance
	}
	if s.DigTime == 0 {
		s.DigTime = DefaultDigTime
	}
	if s.Tick == 0 {
		s.Tick = DefaultTick
	}
}

// Validate checks a scenario against the palette for correctness
func (s *Scenario) Validate(p *Palette) error {
	if s.Name == "" {
		return fmt.Errorf("scenario validation: name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("scenario validation: description is required")
	}

	switch s.GameMode {
	case Survival, Creative:
	default:
		return fmt.Errorf("scenario validation: game_mode must be %q or %q, got %q", Survival, Creative, s.GameMode)
	}

	if s.Spawn.Y < MinWorldY || s.Spawn.Y > MaxWorldY {
		return fmt.Errorf("scenario validation: spawn.y must be between %d and %d, got %s", MinWorldY, MaxWorldY, bot.FormatCoord(s.Spawn.Y))
	}

	for name, v := range map[string]float64{
		"walk_speed":    s.WalkSpeed,
		"fly_speed":     s.FlySpeed,
		"reach":         s.Reach,
		"view_distance": s.ViewDistance,
	} {
		if v <= 0 {
			return fmt.Errorf("scenario validation: %s must be positive, got %s", name, bot.FormatCoord(v))
		}
	}
	if s.DigTime < 0 {
		return fmt.Errorf("scenario validation: dig_time must not be negative, got %s", s.DigTime)
	}
	if s.Tick <= 0 {
		return fmt.Errorf("scenario validation: tick must be positive, got %s", s.Tick)
	}

	if len(s.Regions) == 0 && len(s.Blocks) == 0 {
		return fmt.Errorf("scenario validation: at least one region or block is required")
	}
	for i, r := range s.Regions {
		if _, ok := p.Lookup(r.Block); !ok {
			return fmt.Errorf("scenario validation: regions[%d]: unknown block %q", i, r.Block)
		}
		if !inWorld(r.From.Y) || !inWorld(r.To.Y) {
			return fmt.Errorf("scenario validation: regions[%d]: y must be between %d and %d", i, MinWorldY, MaxWorldY)
		}
		if v := r.Volume(); v > MaxRegionVolume {
			return fmt.Errorf("scenario validation: regions[%d]: volume %d exceeds %d blocks", i, v, MaxRegionVolume)
		}
	}
	for i, b := range s.Blocks {
		if _, ok := p.Lookup(b.Block); !ok {
			return fmt.Errorf("scenario validation: blocks[%d]: unknown block %q", i, b.Block)
		}
	}

	if len(s.Inventory) > MaxInventorySize {
		return fmt.Errorf("scenario validation: inventory holds at most %d stacks, got %d", MaxInventorySize, len(s.Inventory))
	}
	slots := make(map[int]bool)
	for i, st := range s.Inventory {
		if st.Name == "" {
			return fmt.Errorf("scenario validation: inventory[%d]: name is required", i)
		}
		if st.Count < 1 || st.Count > MaxStackSize {
			return fmt.Errorf("scenario validation: inventory[%d]: count must be between 1 and %d, got %d", i, MaxStackSize, st.Count)
		}
		if st.Slot != 0 {
			if st.Slot < 9 || st.Slot > 44 {
				return fmt.Errorf("scenario validation: inventory[%d]: slot must be between 9 and 44, got %d", i, st.Slot)
			}
			if slots[st.Slot] {
				return fmt.Errorf("scenario validation: inventory[%d]: slot %d used twice", i, st.Slot)
			}
			slots[st.Slot] = true
		}
	}

	return nil
}

// ParseScenario decodes, defaults and validates a YAML scenario
func ParseScenario(data []byte, p *Palette) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(p); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenario reads a scenario file
func LoadScenario(filename string, p *Palette) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data, p)
}

// DefaultScenario is a flat creative world with a few ores and a starter kit
func DefaultScenario() *Scenario {
	s := &Scenario{
		Name:        "Flatland",
		Description: "Flat grass world with bedrock floor, a tree and some ore near spawn",
		GameMode:    Creative,
		Spawn:       bot.Vec3{X: 0.5, Y: 64, Z: 0.5},
		Regions: []Region{
			{From: Point{X: -64, Y: 59, Z: -64}, To: Point{X: 64, Y: 59, Z: 64}, Block: "bedrock"},
			{From: Point{X: -64, Y: 60, Z: -64}, To: Point{X: 64, Y: 61, Z: 64}, Block: "stone"},
			{From: Point{X: -64, Y: 62, Z: -64}, To: Point{X: 64, Y: 62, Z: 64}, Block: "dirt"},
			{From: Point{X: -64, Y: 63, Z: -64}, To: Point{X: 64, Y: 63, Z: 64}, Block: "grass_block"},
			{From: Point{X: 5, Y: 64, Z: 5}, To: Point{X: 5, Y: 68, Z: 5}, Block: "oak_log"},
		},
		Blocks: []PlacedBlock{
			{At: Point{X: 3, Y: 61, Z: -2}, Block: "coal_ore"},
			{At: Point{X: -6, Y: 60, Z: 4}, Block: "iron_ore"},
			{At: Point{X: 9, Y: 60, Z: 9}, Block: "diamond_ore"},
		},
		Inventory: []Stack{
			{Name: "oak_planks", Count: 32},
			{Name: "cobblestone", Count: 16},
			{Name: "torch", Count: 8},
		},
	}
	s.ApplyDefaults()
	return s
}

func inWorld(y int) bool {
	return y >= MinWorldY && y <= MaxWorldY
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
