// Command validate checks the simulated-world scenario files in ../scenarios
// (or the directory given as the first argument). It checks:
//   - YAML structure, required fields and known block names
//   - Spawn placement: the bot does not spawn inside a solid block
//   - Ground under spawn for survival scenarios
//   - Placed blocks lie within view distance of spawn so findBlock can see them
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/sim"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateScenario loads and validates a single scenario file.
func validateScenario(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	palette := sim.DefaultPalette()
	scenario, err := sim.ParseScenario(data, palette)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	world := sim.NewWorld(scenario, palette, bot.ConnectOptions{Username: "validator"}, nil)
	defer world.Quit("validation finished")

	spawnResult := validateSpawn(world, scenario, palette)
	result.Valid = spawnResult.Valid
	result.Errors = append(result.Errors, spawnResult.Errors...)

	visibility := validateVisibility(scenario)
	if !visibility.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, visibility.Errors...)

	// Add informational data
	if result.Valid {
		volume := 0
		for _, r := range scenario.Regions {
			volume += r.Volume()
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", scenario.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Game mode: %s", scenario.GameMode))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Regions: %d (%d blocks)", len(scenario.Regions), volume))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Placed blocks: %d", len(scenario.Blocks)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Inventory stacks: %d", len(scenario.Inventory)))
	}

	return result
}

// validateSpawn checks the blocks around the spawn point. The feet and head
// cells must be free; survival bots also need something solid to stand on.
func validateSpawn(world *sim.World, scenario *sim.Scenario, palette *sim.Palette) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	ctx := context.Background()
	solid := func(pos bot.Vec3) (string, bool) {
		block, err := world.BlockAt(ctx, pos)
		if err != nil || block.IsAir() {
			return sim.Air, false
		}
		kind, _ := palette.Lookup(block.Name)
		return block.Name, kind.Solid
	}

	spawn := scenario.Spawn
	for _, dy := range []float64{0, 1} {
		cell := spawn.Add(bot.Vec3{Y: dy})
		if name, ok := solid(cell); ok {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Spawn cell %s is inside %s", cell, name))
		}
	}

	ground, ok := solid(spawn.Add(bot.Vec3{Y: -1}))
	switch {
	case ok:
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Spawn: %s standing on %s", spawn, ground))
	case scenario.GameMode == sim.Survival:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("No solid ground under survival spawn %s", spawn))
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Spawn: %s in the air (creative)", spawn))
	}

	return result
}

// validateVisibility ensures every placed block is within the scenario's view
// distance of spawn, so the bot can find it without moving first.
func validateVisibility(scenario *sim.Scenario) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if len(scenario.Blocks) == 0 {
		return result
	}

	hidden := []string{}
	for _, b := range scenario.Blocks {
		center := b.At.Vec().Add(bot.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
		if d := center.DistanceTo(scenario.Spawn); d > scenario.ViewDistance {
			hidden = append(hidden, fmt.Sprintf("%s at (%d,%d,%d) is %.0f blocks away", b.Block, b.At.X, b.At.Y, b.At.Z, d))
		}
	}

	if len(hidden) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Visibility failure: %d/%d placed blocks beyond view distance %.0f", len(hidden), len(scenario.Blocks), scenario.ViewDistance))
		for _, h := range hidden {
			result.Errors = append(result.Errors, fmt.Sprintf("Hidden: %s", h))
		}
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Visibility: all %d placed blocks within view distance", len(scenario.Blocks)))
	}

	return result
}

// scenarioFiles lists the YAML files in dir in name order.
func scenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each scenario file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	scenarioDir := "../scenarios"
	if len(os.Args) > 1 {
		scenarioDir = os.Args[1]
	}

	files, err := scenarioFiles(scenarioDir)
	if err != nil {
		fmt.Printf("Error finding scenario files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No scenario files found in %s\n", scenarioDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateScenario(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenarios are valid!")
	} else {
		fmt.Println("❌ Some scenarios have errors")
		os.Exit(1)
	}
}
