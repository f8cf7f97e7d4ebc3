// Package refdata holds the GPU power and cloud region emission tables used
// by the AI workload calculator. Tables are immutable once built.
package refdata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

var (
	ErrUnknownGPU      = errors.New("unknown gpu")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownRegion   = errors.New("unknown region")
)

// GPU is a single row of the GPU power table.
type GPU struct {
	Name  string  `yaml:"name" json:"name"`
	Watts float64 `yaml:"watts" json:"watts"`
}

// Region is the emission profile of one provider region.
type Region struct {
	Region      string  `yaml:"region" json:"region"`
	Location    string  `yaml:"location" json:"location"`
	Impact      float64 `yaml:"impact" json:"impact"`
	OffsetRatio float64 `yaml:"offset_ratio" json:"offsetRatio"`
}

// Provider groups the regions of one cloud provider.
type Provider struct {
	Provider string   `yaml:"provider" json:"provider"`
	Name     string   `yaml:"name" json:"name"`
	Regions  []Region `yaml:"regions" json:"regions"`
}

type file struct {
	GPUs      []GPU      `yaml:"gpus"`
	Providers []Provider `yaml:"providers"`
}

type regionKey struct {
	provider string
	region   string
}

// Tables is the lookup structure built from a GPU list and a provider list.
type Tables struct {
	gpus      map[string]float64
	regions   map[regionKey]Region
	providers map[string]Provider

	gpuNames      []string
	providerNames []string
}

// New builds Tables from rows. Duplicate keys and negative values are rejected.
func New(gpus []GPU, providers []Provider) (*Tables, error) {
	t := &Tables{
		gpus:      make(map[string]float64, len(gpus)),
		regions:   make(map[regionKey]Region),
		providers: make(map[string]Provider, len(providers)),
	}

	for _, g := range gpus {
		if g.Name == "" {
			return nil, errors.New("gpu with empty name")
		}
		if g.Watts < 0 {
			return nil, fmt.Errorf("gpu %q has negative watts", g.Name)
		}
		if _, dup := t.gpus[g.Name]; dup {
			return nil, fmt.Errorf("duplicate gpu %q", g.Name)
		}
		t.gpus[g.Name] = g.Watts
		t.gpuNames = append(t.gpuNames, g.Name)
	}

	for _, p := range providers {
		if p.Provider == "" {
			return nil, errors.New("provider with empty key")
		}
		if _, dup := t.providers[p.Provider]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.Provider)
		}
		for _, r := range p.Regions {
			if r.Impact < 0 || r.OffsetRatio < 0 {
				return nil, fmt.Errorf("region %s/%s has negative values", p.Provider, r.Region)
			}
			key := regionKey{p.Provider, r.Region}
			if _, dup := t.regions[key]; dup {
				return nil, fmt.Errorf("duplicate region %s/%s", p.Provider, r.Region)
			}
			t.regions[key] = r
		}
		t.providers[p.Provider] = p
		t.providerNames = append(t.providerNames, p.Provider)
	}

	sort.Strings(t.gpuNames)
	sort.Strings(t.providerNames)
	return t, nil
}

// Parse builds Tables from YAML bytes.
func Parse(data []byte) (*Tables, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode reference data: %w", err)
	}
	return New(f.GPUs, f.Providers)
}

// Load reads Tables from path, or the embedded default table when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded table.
func Default() (*Tables, error) {
	return Parse(defaultTable)
}

// GPUWatts returns the power draw of the named GPU.
func (t *Tables) GPUWatts(name string) (float64, error) {
	w, ok := t.gpus[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGPU, name)
	}
	return w, nil
}

// Region returns the emission profile of provider/region.
func (t *Tables) Region(provider, region string) (Region, error) {
	if _, ok := t.providers[provider]; !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	r, ok := t.regions[regionKey{provider, region}]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q in %q", ErrUnknownRegion, region, provider)
	}
	return r, nil
}

// GPUs returns the sorted GPU names.
func (t *Tables) GPUs() []string {
	return append([]string(nil), t.gpuNames...)
}

// Providers returns the sorted provider keys.
func (t *Tables) Providers() []string {
	return append([]string(nil), t.providerNames...)
}

// Regions returns the sorted region keys of provider.
func (t *Tables) Regions(provider string) ([]string, error) {
	p, ok := t.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	names := make([]string, 0, len(p.Regions))
	for _, r := range p.Regions {
		names = append(names, r.Region)
	}
	sort.Strings(names)
	return names, nil
}

// ProviderName returns the display name of provider.
func (t *Tables) ProviderName(provider string) (string, error) {
	p, ok := t.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return p.Name, nil
}
