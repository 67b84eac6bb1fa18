package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/service"
	"github.com/wricardo/mcp-training/minecraftremote/game/sim"
)

func testScenario(mode string) *sim.Scenario {
	s := &sim.Scenario{
		Name:     "Test Scenario",
		GameMode: mode,
		Spawn:    bot.Vec3{X: 0, Y: 64, Z: 0},
		Regions: []sim.Region{
			{From: sim.Point{X: -10, Y: 63, Z: -10}, To: sim.Point{X: 10, Y: 63, Z: 10}, Block: "stone"},
		},
		Blocks: []sim.PlacedBlock{
			{At: sim.Point{X: 300, Y: 64, Z: 0}, Block: "diamond_ore"},
			{At: sim.Point{X: 3, Y: 64, Z: 4}, Block: "coal_ore"},
		},
	}
	s.ApplyDefaults()
	return s
}

func TestAnalyzeScenario(t *testing.T) {
	a := analyzeScenario(testScenario(sim.Survival), service.DefaultOptions())

	if a.Name != "Test Scenario" || a.GameMode != sim.Survival {
		t.Errorf("Unexpected summary: %+v", a)
	}
	if a.Min != (sim.Point{X: -10, Y: 63, Z: -10}) || a.Max != (sim.Point{X: 300, Y: 64, Z: 10}) {
		t.Errorf("Unexpected bounds: %v to %v", a.Min, a.Max)
	}
	if a.Counts["stone"] != 441 || a.Counts["coal_ore"] != 1 {
		t.Errorf("Unexpected counts: %v", a.Counts)
	}
	if a.Timeout != 60*time.Second {
		t.Errorf("Expected move timeout for survival, got %s", a.Timeout)
	}

	if len(a.Targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(a.Targets))
	}
	// nearest first
	if a.Targets[0].Block != "coal_ore" || a.Targets[0].Distance != 5 {
		t.Errorf("Expected coal_ore 5 blocks away first, got %+v", a.Targets[0])
	}
}

func TestAnalysis_Slow(t *testing.T) {
	t.Run("survival walks", func(t *testing.T) {
		a := analyzeScenario(testScenario(sim.Survival), service.DefaultOptions())
		slow := a.Slow()
		// 300 blocks at 4.3 blocks/s is about 70s
		if len(slow) != 1 || slow[0].Block != "diamond_ore" {
			t.Errorf("Expected diamond_ore to be slow, got %+v", slow)
		}
	})

	t.Run("creative flies", func(t *testing.T) {
		a := analyzeScenario(testScenario(sim.Creative), service.DefaultOptions())
		if a.Timeout != 20*time.Second {
			t.Errorf("Expected flight timeout for creative, got %s", a.Timeout)
		}
		// 300 blocks at 10.9 blocks/s is about 28s
		if len(a.Slow()) != 1 {
			t.Errorf("Expected one slow target, got %+v", a.Slow())
		}
	})
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	printAnalysis(&buf, analyzeScenario(testScenario(sim.Survival), service.DefaultOptions()))
	out := buf.String()

	for _, want := range []string{
		"Name: Test Scenario",
		"Bounds: (-10, 63, -10) to (300, 64, 10)",
		"stone",
		"Target: coal_ore at (3, 64, 4) - 5.0 blocks",
		"WARNING: 1 targets take longer than the 1m0s tool timeout",
		"Slow: diamond_ore at (300, 64, 0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintAnalysis_AllReachable(t *testing.T) {
	s := testScenario(sim.Survival)
	s.Blocks = s.Blocks[1:]

	var buf bytes.Buffer
	printAnalysis(&buf, analyzeScenario(s, service.DefaultOptions()))
	if !strings.Contains(buf.String(), "✅ All targets reachable") {
		t.Errorf("Expected all-reachable line, got:\n%s", buf.String())
	}
}
