// Package config provides scenario management for the simulated bot backend.
//
// The config package handles:
//   - Loading scenarios from YAML files
//   - Scenario validation against the block palette
//   - Default scenario management
//   - Scenario discovery and listing
//
// Scenario Format:
//
// Scenarios are stored as .yaml (or .yml) files in the scenario directory.
// Each scenario defines:
//   - Terrain as filled regions plus single blocks
//   - Spawn point and game mode (creative allows flight)
//   - Movement speeds, reach, view distance and dig time
//   - The starting inventory
//
// Default Scenario:
//
// flatland.yaml is used as the default when present; otherwise the first valid
// file in the directory, and finally the scenario built into the sim package.
//
// Usage:
//
//	manager, err := config.NewManager("scenarios")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific scenario
//	scenario, err := manager.LoadScenario("caves")
//
//	// Use the manager as the simulated dialer's source
//	dialer := sim.NewDialer(manager, "caves", logger)
//
//	// List available scenarios
//	infos, err := manager.ListScenarios()
package config
