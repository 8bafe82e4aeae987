package style

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// Registry maps preset identifiers to complete style configs. It is
// read-only after construction and hands out copies.
type Registry struct {
	order   []Preset
	presets map[Preset]Config
}

// ParseRegistry builds a registry from a YAML list of configs. The first
// entry becomes the default preset.
func ParseRegistry(data []byte) (*Registry, error) {
	var configs []Config
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no presets defined")
	}

	r := &Registry{
		order:   make([]Preset, 0, len(configs)),
		presets: make(map[Preset]Config, len(configs)),
	}
	for _, cfg := range configs {
		if cfg.Preset == "" {
			return nil, fmt.Errorf("preset without identifier")
		}
		if _, dup := r.presets[cfg.Preset]; dup {
			return nil, fmt.Errorf("duplicate preset %q", cfg.Preset)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", cfg.Preset, err)
		}
		r.order = append(r.order, cfg.Preset)
		r.presets[cfg.Preset] = cfg
	}
	return r, nil
}

var defaultRegistry = mustParseRegistry(builtinPresets)

func mustParseRegistry(data []byte) *Registry {
	r, err := ParseRegistry(data)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the built-in presets.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func (r *Registry) Get(p Preset) (Config, bool) {
	cfg, ok := r.presets[p]
	if !ok {
		return Config{}, false
	}
	return cfg.Clone(), true
}

// Presets lists preset identifiers in declaration order.
func (r *Registry) Presets() []Preset {
	return append([]Preset(nil), r.order...)
}

// All returns copies of every preset in declaration order.
func (r *Registry) All() []Config {
	ret := make([]Config, 0, len(r.order))
	for _, p := range r.order {
		ret = append(ret, r.presets[p].Clone())
	}
	return ret
}

func (r *Registry) Default() Config {
	return r.presets[r.order[0]].Clone()
}
