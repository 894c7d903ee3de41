package stage

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"redline/internal/domain"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Definition describes one editing stage: its key, display metadata, and
// the analysis directive sent to the oracle as system-level instructions.
type Definition struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Directive   string `yaml:"directive" json:"-"`
}

type catalogFile struct {
	Stages []*Definition `yaml:"stages"`
}

// Registry is the static catalog of the five editing stages. It is loaded
// once at startup from the embedded YAML file and never mutated.
type Registry struct {
	ordered []*Definition
	byKey   map[string]*Definition
}

// NewRegistry loads the embedded stage catalog.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/stages.yaml")
	if err != nil {
		return nil, fmt.Errorf("read stage catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal stage catalog: %w", err)
	}

	r := &Registry{
		ordered: file.Stages,
		byKey:   make(map[string]*Definition, len(file.Stages)),
	}
	for _, def := range file.Stages {
		if def.Key == "" || def.Name == "" || def.Directive == "" {
			return nil, fmt.Errorf("stage catalog entry %q is incomplete", def.Key)
		}
		if _, dup := r.byKey[def.Key]; dup {
			return nil, fmt.Errorf("stage catalog has duplicate key %q", def.Key)
		}
		r.byKey[def.Key] = def
	}

	return r, nil
}

// Lookup returns the definition for a stage key.
// Returns ErrUnknownStage for keys not in the catalog.
func (r *Registry) Lookup(key string) (*Definition, error) {
	def, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("stage %q: %w", key, domain.ErrUnknownStage)
	}
	return def, nil
}

// List returns all stage definitions in pipeline order.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, len(r.ordered))
	copy(out, r.ordered)
	return out
}
