package sim

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// ScenarioSource provides scenarios by name
type ScenarioSource interface {
	LoadScenario(name string) (*Scenario, error)
}

// Dialer opens a fresh World for every connection
type Dialer struct {
	source   ScenarioSource
	scenario string
	palette  *Palette
	logger   *zap.Logger
}

var _ bot.Dialer = (*Dialer)(nil)

// NewDialer creates a dialer that builds worlds from the named scenario.
// A nil source uses DefaultScenario.
func NewDialer(source ScenarioSource, scenario string, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		source:   source,
		scenario: scenario,
		palette:  DefaultPalette(),
		logger:   logger,
	}
}

// Dial accepts any host. The username must be a valid player name.
func (d *Dialer) Dial(ctx context.Context, opts bot.ConnectOptions) (bot.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !usernamePattern.MatchString(opts.Username) {
		return nil, fmt.Errorf("invalid username %q: 1-16 letters, digits or underscores", opts.Username)
	}

	s := DefaultScenario()
	if d.source != nil {
		loaded, err := d.source.LoadScenario(d.scenario)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario %q: %w", d.scenario, err)
		}
		s = loaded
	}

	d.logger.Info("spawning simulated bot",
		zap.String("scenario", s.Name),
		zap.String("addr", opts.Addr()),
		zap.String("username", opts.Username))

	return NewWorld(s, d.palette, opts, d.logger), nil
}
