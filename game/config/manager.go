package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/minecraftremote/game/sim"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// DefaultScenarioName is preferred as the default when present in the directory
const DefaultScenarioName = "flatland"

// ScenarioInfo summarizes a scenario file
type ScenarioInfo struct {
	Filename    string `json:"filename"`
	ScenarioID  string `json:"scenario_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	GameMode    string `json:"game_mode"`
	Regions     int    `json:"regions"`
	Blocks      int    `json:"blocks"`
}

// Manager loads and caches scenarios from a directory of YAML files
type Manager struct {
	scenarioDir     string
	palette         *sim.Palette
	defaultScenario *sim.Scenario
	scenarios       map[string]*sim.Scenario
	mu              sync.RWMutex
}

var _ sim.ScenarioSource = (*Manager)(nil)

// NewManager creates a scenario manager over scenarioDir
func NewManager(scenarioDir string) (*Manager, error) {
	if _, err := os.Stat(scenarioDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario directory does not exist: %s", scenarioDir)
	}

	m := &Manager{
		scenarioDir: scenarioDir,
		palette:     sim.DefaultPalette(),
		scenarios:   make(map[string]*sim.Scenario),
	}
	m.loadDefaultScenario()
	return m, nil
}

func scenarioID(filename string) string {
	ext := filepath.Ext(filename)
	if ext == ".yaml" || ext == ".yml" {
		return strings.TrimSuffix(filename, ext)
	}
	return filename
}

// LoadScenario loads a scenario by id. An empty name returns the default.
func (m *Manager) LoadScenario(name string) (*sim.Scenario, error) {
	if name == "" {
		return m.GetDefault(), nil
	}
	id := scenarioID(name)

	m.mu.RLock()
	if s, exists := m.scenarios[id]; exists {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if s, exists := m.scenarios[id]; exists {
		return s, nil
	}

	var (
		data []byte
		err  error
	)
	for _, ext := range []string{".yaml", ".yml"} {
		data, err = os.ReadFile(filepath.Join(m.scenarioDir, id+ext))
		if err == nil || !os.IsNotExist(err) {
			break
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := sim.ParseScenario(data, m.palette)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, id, err)
	}

	m.scenarios[id] = s
	return s, nil
}

// ListScenarios returns summaries of every valid scenario in the directory
func (m *Manager) ListScenarios() ([]*ScenarioInfo, error) {
	entries, err := os.ReadDir(m.scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*ScenarioInfo
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		id := scenarioID(entry.Name())
		s, err := m.LoadScenario(id)
		if err != nil {
			// Skip invalid scenarios
			continue
		}

		scenarios = append(scenarios, &ScenarioInfo{
			Filename:    entry.Name(),
			ScenarioID:  id,
			Name:        s.Name,
			Description: s.Description,
			GameMode:    s.GameMode,
			Regions:     len(s.Regions),
			Blocks:      len(s.Blocks),
		})
	}

	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ScenarioID < scenarios[j].ScenarioID })
	return scenarios, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *sim.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by id
func (m *Manager) SetDefault(name string) error {
	s, err := m.LoadScenario(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = s
	return nil
}

// RefreshCache drops cached scenarios and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.scenarios = make(map[string]*sim.Scenario)
	m.mu.Unlock()

	m.loadDefaultScenario()
}

// loadDefaultScenario prefers flatland, then the first valid file, then the
// built-in scenario
func (m *Manager) loadDefaultScenario() {
	s, err := m.LoadScenario(DefaultScenarioName)
	if err != nil {
		s = sim.DefaultScenario()
		if infos, listErr := m.ListScenarios(); listErr == nil && len(infos) > 0 {
			if first, loadErr := m.LoadScenario(infos[0].ScenarioID); loadErr == nil {
				s = first
			}
		}
	}

	m.mu.Lock()
	m.defaultScenario = s
	m.mu.Unlock()
}

// SaveScenario validates and writes a scenario as <name>.yaml
func (m *Manager) SaveScenario(name string, s *sim.Scenario) error {
	if err := s.Validate(m.palette); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	id := scenarioID(name)
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.scenarioDir, id+".yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[id] = s
	m.mu.Unlock()
	return nil
}
