package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

func createTestScenario() *Scenario {
	s := &Scenario{
		Name:         "Test Scenario",
		Description:  "Small creative island for world tests",
		GameMode:     Creative,
		Spawn:        bot.Vec3{X: 0.5, Y: 1, Z: 0.5},
		WalkSpeed:    40,
		FlySpeed:     80,
		Reach:        4.5,
		ViewDistance: 32,
		DigTime:      5 * time.Millisecond,
		Tick:         5 * time.Millisecond,
		Regions: []Region{
			{From: Point{X: -8, Y: -1, Z: -8}, To: Point{X: 8, Y: -1, Z: 8}, Block: "bedrock"},
			{From: Point{X: -8, Y: 0, Z: -8}, To: Point{X: 8, Y: 0, Z: 8}, Block: "stone"},
		},
		Blocks: []PlacedBlock{
			{At: Point{X: 2, Y: 1, Z: 0}, Block: "dirt"},
			{At: Point{X: 6, Y: 0, Z: 6}, Block: "diamond_ore"},
		},
		Inventory: []Stack{
			{Name: "oak_planks", Count: 2},
			{Name: "torch", Count: 4, Slot: 40},
		},
	}
	return s
}

func TestScenario_Validate(t *testing.T) {
	palette := DefaultPalette()

	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{name: "valid", mutate: func(s *Scenario) {}},
		{name: "missing name", mutate: func(s *Scenario) { s.Name = "" }, wantErr: "name is required"},
		{name: "missing description", mutate: func(s *Scenario) { s.Description = "" }, wantErr: "description is required"},
		{name: "bad game mode", mutate: func(s *Scenario) { s.GameMode = "adventure" }, wantErr: "game_mode"},
		{name: "spawn below world", mutate: func(s *Scenario) { s.Spawn.Y = -100 }, wantErr: "spawn.y"},
		{name: "zero reach", mutate: func(s *Scenario) { s.Reach = 0 }, wantErr: "reach must be positive"},
		{name: "negative dig time", mutate: func(s *Scenario) { s.DigTime = -time.Second }, wantErr: "dig_time"},
		{name: "no terrain", mutate: func(s *Scenario) { s.Regions = nil; s.Blocks = nil }, wantErr: "at least one region"},
		{name: "unknown region block", mutate: func(s *Scenario) { s.Regions[0].Block = "cheese" }, wantErr: `unknown block "cheese"`},
		{name: "unknown single block", mutate: func(s *Scenario) { s.Blocks[0].Block = "cheese" }, wantErr: "blocks[0]"},
		{name: "huge region", mutate: func(s *Scenario) {
			s.Regions[0].From = Point{X: -1000, Y: 0, Z: -1000}
			s.Regions[0].To = Point{X: 1000, Y: 0, Z: 1000}
		}, wantErr: "volume"},
		{name: "empty stack", mutate: func(s *Scenario) { s.Inventory[0].Count = 0 }, wantErr: "count must be between"},
		{name: "duplicate slot", mutate: func(s *Scenario) { s.Inventory[0].Slot = 40 }, wantErr: "used twice"},
		{name: "slot out of range", mutate: func(s *Scenario) { s.Inventory[0].Slot = 2 }, wantErr: "slot must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestScenario()
			tt.mutate(s)
			err := s.Validate(palette)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid scenario, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultScenario_IsValid(t *testing.T) {
	if err := DefaultScenario().Validate(DefaultPalette()); err != nil {
		t.Errorf("Default scenario should be valid: %v", err)
	}
}

func TestParseScenario(t *testing.T) {
	data := []byte(`
name: Tiny
description: One stone platform
game_mode: survival
spawn: {x: 0.5, y: 1, z: 0.5}
dig_time: 100ms
regions:
  - from: {x: -2, y: 0, z: -2}
    to: {x: 2, y: 0, z: 2}
    block: stone
inventory:
  - name: dirt
    count: 3
`)

	s, err := ParseScenario(data, DefaultPalette())
	if err != nil {
		t.Fatalf("ParseScenario failed: %v", err)
	}
	if s.Name != "Tiny" {
		t.Errorf("Expected name Tiny, got %s", s.Name)
	}
	if s.DigTime != 100*time.Millisecond {
		t.Errorf("Expected dig_time 100ms, got %s", s.DigTime)
	}
	if s.WalkSpeed != DefaultWalkSpeed {
		t.Errorf("Expected default walk speed %v, got %v", DefaultWalkSpeed, s.WalkSpeed)
	}
	if s.Tick != DefaultTick {
		t.Errorf("Expected default tick %s, got %s", DefaultTick, s.Tick)
	}
	if len(s.Regions) != 1 || s.Regions[0].Volume() != 25 {
		t.Errorf("Expected one 5x1x5 region, got %+v", s.Regions)
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	if _, err := ParseScenario([]byte("name: [unclosed"), DefaultPalette()); err == nil {
		t.Error("Expected YAML syntax error")
	}
	if _, err := ParseScenario([]byte("name: x\n"), DefaultPalette()); err == nil {
		t.Error("Expected validation error for scenario without description")
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "island.yaml")
	content := "name: Island\ndescription: test\nblocks:\n  - at: {x: 0, y: 0, z: 0}\n    block: sand\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScenario(path, DefaultPalette())
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if s.GameMode != Survival {
		t.Errorf("Expected survival default, got %s", s.GameMode)
	}

	if _, err := LoadScenario(filepath.Join(dir, "missing.yaml"), DefaultPalette()); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
