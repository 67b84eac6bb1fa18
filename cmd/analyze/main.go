// Command analyze prints quick, human-readable heuristics about the scenario
// files in the project's scenarios directory. It summarizes the world bounds,
// block counts by kind and how long the bot needs to reach each placed block,
// highlighting blocks a single moveTo or flyTo call cannot reach before the
// tool timeout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wricardo/mcp-training/minecraftremote/game/service"
	"github.com/wricardo/mcp-training/minecraftremote/game/sim"
)

// Target is a placed block with its travel estimate from spawn
type Target struct {
	Block    string
	At       sim.Point
	Distance float64
	Travel   time.Duration
}

// Analysis is the summary for one scenario
type Analysis struct {
	Name     string
	GameMode string
	Spawn    string
	Min, Max sim.Point
	Counts   map[string]int
	Targets  []Target
	// Timeout is the tool timeout that applies to travel in this game mode
	Timeout time.Duration
}

// Slow returns the targets that take longer than the tool timeout to reach
func (a *Analysis) Slow() []Target {
	var slow []Target
	for _, t := range a.Targets {
		if t.Travel > a.Timeout {
			slow = append(slow, t)
		}
	}
	return slow
}

func main() {
	dir := "scenarios"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No scenario files found in %s\n", dir)
		os.Exit(1)
	}

	opts := service.DefaultOptions()
	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		s, err := sim.LoadScenario(file, sim.DefaultPalette())
		if err != nil {
			fmt.Printf("Error loading scenario: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeScenario(s, opts))
	}
}

// analyzeScenario computes bounds, block counts and travel estimates. Creative
// scenarios are measured at fly speed against the flight timeout, survival
// ones at walk speed against the move timeout.
func analyzeScenario(s *sim.Scenario, opts service.Options) *Analysis {
	a := &Analysis{
		Name:     s.Name,
		GameMode: s.GameMode,
		Spawn:    s.Spawn.String(),
		Counts:   make(map[string]int),
	}

	speed := s.WalkSpeed
	a.Timeout = opts.MoveTimeout
	if s.GameMode == sim.Creative {
		speed = s.FlySpeed
		a.Timeout = opts.FlightTimeout
	}

	first := true
	grow := func(p sim.Point) {
		if first {
			a.Min, a.Max = p, p
			first = false
			return
		}
		a.Min = sim.Point{X: min(a.Min.X, p.X), Y: min(a.Min.Y, p.Y), Z: min(a.Min.Z, p.Z)}
		a.Max = sim.Point{X: max(a.Max.X, p.X), Y: max(a.Max.Y, p.Y), Z: max(a.Max.Z, p.Z)}
	}

	for _, r := range s.Regions {
		grow(r.From)
		grow(r.To)
		a.Counts[r.Block] += r.Volume()
	}
	for _, b := range s.Blocks {
		grow(b.At)
		a.Counts[b.Block]++

		d := b.At.Vec().DistanceTo(s.Spawn)
		a.Targets = append(a.Targets, Target{
			Block:    b.Block,
			At:       b.At,
			Distance: d,
			Travel:   time.Duration(d / speed * float64(time.Second)).Round(100 * time.Millisecond),
		})
	}

	sort.Slice(a.Targets, func(i, j int) bool { return a.Targets[i].Distance < a.Targets[j].Distance })
	return a
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Game Mode: %s\n", a.GameMode)
	fmt.Fprintf(w, "Spawn: %s\n", a.Spawn)
	fmt.Fprintf(w, "Bounds: (%d, %d, %d) to (%d, %d, %d)\n", a.Min.X, a.Min.Y, a.Min.Z, a.Max.X, a.Max.Y, a.Max.Z)

	kinds := make([]string, 0, len(a.Counts))
	for k := range a.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "Blocks:\n")
	for _, k := range kinds {
		fmt.Fprintf(w, "   %-12s %d\n", k, a.Counts[k])
	}

	for _, t := range a.Targets {
		fmt.Fprintf(w, "Target: %s at (%d, %d, %d) - %.1f blocks, ~%s\n", t.Block, t.At.X, t.At.Y, t.At.Z, t.Distance, t.Travel)
	}

	slow := a.Slow()
	if len(slow) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d targets take longer than the %s tool timeout to reach\n", len(slow), a.Timeout)
		for i, t := range slow {
			if i < 5 { // Show first 5
				fmt.Fprintf(w, "   Slow: %s at (%d, %d, %d) - %s\n", t.Block, t.At.X, t.At.Y, t.At.Z, t.Travel)
			}
		}
		if len(slow) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(slow)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ All targets reachable within the %s tool timeout\n", a.Timeout)
	}
}
