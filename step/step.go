package step

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Step names one phase of the onboarding flow.
type Step string

const (
	// Invitation is the gating step shown while an invitation code is required.
	Invitation Step = "invitation"
	// Email collects the address a login code is sent to.
	Email Step = "email"
	// Verify collects the code that was emailed.
	Verify Step = "verify"
	// Success is terminal.
	Success Step = "success"
)

const (
	MinRank    = 1
	MaxRank    = 3
	MinPercent = 0
	MaxPercent = 100
)

var (
	ErrUnknownStep   = errors.New("unknown step")
	ErrInvalidConfig = errors.New("invalid step config")
)

// Switcher changes the visible step.
type Switcher interface {
	SwitchStep(s Step)
}

// SwitcherFunc adapts a function to [Switcher].
type SwitcherFunc func(s Step)

func (f SwitcherFunc) SwitchStep(s Step) { f(s) }

// Config is the progress configuration of one step.
type Config struct {
	Percent int `yaml:"percent" json:"percent"`
	Rank    int `yaml:"rank"    json:"rank"`
}

// Validate checks the percent and rank bounds.
func (c Config) Validate() error {
	if c.Percent < MinPercent || c.Percent > MaxPercent {
		return fmt.Errorf("%w: percent %d outside [%d,%d]", ErrInvalidConfig, c.Percent, MinPercent, MaxPercent)
	}
	if c.Rank < MinRank || c.Rank > MaxRank {
		return fmt.Errorf("%w: rank %d outside [%d,%d]", ErrInvalidConfig, c.Rank, MinRank, MaxRank)
	}
	return nil
}

// DefaultConfigs returns a fresh copy of the built-in step table.
func DefaultConfigs() map[Step]Config {
	return map[Step]Config{
		Invitation: {Percent: 25, Rank: 1},
		Email:      {Percent: 33, Rank: 1},
		Verify:     {Percent: 66, Rank: 2},
		Success:    {Percent: 100, Rank: 3},
	}
}

// Registry holds the step table. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs map[Step]Config
}

// NewRegistry returns a registry seeded with [DefaultConfigs].
func NewRegistry() *Registry {
	return &Registry{configs: DefaultConfigs()}
}

// Add registers or overwrites a named step.
func (r *Registry) Add(name Step, percent, rank int) error {
	name = Step(strings.TrimSpace(string(name)))
	if name == "" {
		return fmt.Errorf("%w: empty step name", ErrInvalidConfig)
	}
	cfg := Config{Percent: percent, Rank: rank}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.configs[name] = cfg
	r.mu.Unlock()
	return nil
}

// Lookup returns the config registered for s.
func (r *Registry) Lookup(s Step) (Config, bool) {
	if r == nil {
		return Config{}, false
	}
	r.mu.RLock()
	cfg, ok := r.configs[s]
	r.mu.RUnlock()
	return cfg, ok
}

// Rank returns the rank of s.
func (r *Registry) Rank(s Step) (int, bool) {
	cfg, ok := r.Lookup(s)
	return cfg.Rank, ok
}

// CompareRanks is the step order: -1 if rank a precedes rank b, 0 if they
// are equal, +1 if a follows b.
func CompareRanks(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare orders a and b by rank with [CompareRanks]. Unknown steps yield
// ErrUnknownStep.
func (r *Registry) Compare(a, b Step) (int, error) {
	ra, ok := r.Rank(a)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStep, a)
	}
	rb, ok := r.Rank(b)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStep, b)
	}
	return CompareRanks(ra, rb), nil
}

// Steps returns every registered step sorted by rank, then name.
func (r *Registry) Steps() []Step {
	r.mu.RLock()
	out := make([]Step, 0, len(r.configs))
	for s := range r.configs {
		out = append(out, s)
	}
	ranks := make(map[Step]int, len(r.configs))
	for s, cfg := range r.configs {
		ranks[s] = cfg.Rank
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if ranks[out[i]] != ranks[out[j]] {
			return ranks[out[i]] < ranks[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// LoadYAML merges a step table of the form
//
//	steps:
//	  review: {percent: 80, rank: 2}
//
// into r. The whole document is validated before anything is registered.
func (r *Registry) LoadYAML(src io.Reader) error {
	var doc struct {
		Steps map[string]Config `yaml:"steps"`
	}
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode yaml: %v", ErrInvalidConfig, err)
	}
	for name, cfg := range doc.Steps {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty step name", ErrInvalidConfig)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("step %q: %w", name, err)
		}
	}

	r.mu.Lock()
	for name, cfg := range doc.Steps {
		r.configs[Step(strings.TrimSpace(name))] = cfg
	}
	r.mu.Unlock()
	return nil
}
