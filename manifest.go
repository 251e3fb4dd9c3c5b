package locator

import (
	"fmt"
	"os"
	"slices"

	"github.com/xraph/go-utils/di"
	"gopkg.in/yaml.v3"
)

// Manifest declares the services an application expects and what each
// depends on, so the graph can be checked before the first resolve.
//
//	services:
//	  - name: database
//	  - name: userService
//	    dependsOn: [database]
//	    lazy: [mailer]
//	    optional: [tracer]
type Manifest struct {
	Services []ManifestService `yaml:"services"`
}

// ManifestService is one declared service.
type ManifestService struct {
	Name      string   `yaml:"name"`
	Lifecycle string   `yaml:"lifecycle,omitempty"` // singleton (default) or transient
	DependsOn []string `yaml:"dependsOn,omitempty"`
	Lazy      []string `yaml:"lazy,omitempty"`
	Optional  []string `yaml:"optional,omitempty"`
}

// Deps returns the declared dependencies with their modes.
func (s ManifestService) Deps() []di.Dep {
	deps := make([]di.Dep, 0, len(s.DependsOn)+len(s.Lazy)+len(s.Optional))

	for _, name := range s.DependsOn {
		deps = append(deps, di.Eager(name))
	}

	for _, name := range s.Lazy {
		deps = append(deps, di.Lazy(name))
	}

	for _, name := range s.Optional {
		deps = append(deps, di.Optional(name))
	}

	return deps
}

func (s ManifestService) lifecycle() string {
	if s.Lifecycle == "" {
		return LifecycleSingleton
	}

	return s.Lifecycle
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	seen := make(map[string]bool, len(m.Services))

	for i, svc := range m.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("manifest service #%d has no name", i+1)
		}

		if seen[svc.Name] {
			return nil, fmt.Errorf("manifest declares service %q twice", svc.Name)
		}

		seen[svc.Name] = true

		if lc := svc.lifecycle(); lc != LifecycleSingleton && lc != LifecycleTransient {
			return nil, ErrUnsupportedLifecycle(svc.Name, lc)
		}
	}

	return &m, nil
}

// LoadManifest reads and decodes a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(data)
}

// Names returns the declared service names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Services))
	for i, svc := range m.Services {
		names[i] = svc.Name
	}

	return names
}

// Graph builds the declared dependency graph.
func (m *Manifest) Graph() *DependencyGraph {
	g := NewDependencyGraph()
	for _, svc := range m.Services {
		g.AddNodeWithDeps(svc.Name, svc.Deps())
	}

	return g
}

// Placeholder is the instance Populate registers for a manifest service.
type Placeholder struct {
	Name         string
	Dependencies map[string]any
}

// Populate registers a placeholder factory for every manifest service. Each
// factory resolves its eager dependencies (and optional ones that exist), so
// resolving a placeholder exercises the declared graph exactly as real
// factories would.
func (m *Manifest) Populate(c Container) error {
	for _, svc := range m.Services {
		factory := func(c Container) (any, error) {
			p := &Placeholder{Name: svc.Name, Dependencies: map[string]any{}}

			for _, dep := range svc.Deps() {
				if dep.Mode.IsLazy() || (dep.Mode.IsOptional() && !c.Has(dep.Name)) {
					continue
				}

				instance, err := c.Resolve(dep.Name)
				if err != nil {
					return nil, err
				}

				p.Dependencies[dep.Name] = instance
			}

			return p, nil
		}

		opts := []RegisterOption{
			{Lifecycle: svc.lifecycle()},
			WithDeps(svc.Deps()...),
			WithMetadata("source", "manifest"),
		}

		if err := c.Register(svc.Name, factory, opts...); err != nil {
			return err
		}
	}

	return nil
}

// Service returns the declared entry for name.
func (m *Manifest) Service(name string) (ManifestService, bool) {
	i := slices.IndexFunc(m.Services, func(s ManifestService) bool { return s.Name == name })
	if i < 0 {
		return ManifestService{}, false
	}

	return m.Services[i], true
}
