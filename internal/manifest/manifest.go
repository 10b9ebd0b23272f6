// Package manifest loads catalogs described in YAML.
package manifest

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/centraunit/compose"
)

// Manifest is the YAML description of a type hierarchy and its registrations.
type Manifest struct {
	Types         []TypeSpec         `yaml:"types"`
	Registrations []RegistrationSpec `yaml:"registrations"`
}

// TypeSpec declares one type and its direct parents.
type TypeSpec struct {
	Name    string   `yaml:"name"`
	Open    bool     `yaml:"open"`
	Parents []string `yaml:"parents"`
}

// RegistrationSpec describes one registration. At most one of
// Implementation and Factory may be set; neither declares a placeholder,
// which requires AllowMultiple.
type RegistrationSpec struct {
	Contract           string         `yaml:"contract"`
	Implementation     string         `yaml:"implementation"`
	Factory            string         `yaml:"factory"`
	Declared           string         `yaml:"declared"`
	Name               string         `yaml:"name"`
	Lifetime           string         `yaml:"lifetime"`
	AllowMultiple      bool           `yaml:"allow_multiple"`
	ExternallyOwned    bool           `yaml:"externally_owned"`
	Override           bool           `yaml:"override"`
	OverridePriority   int            `yaml:"override_priority"`
	ProcessingPriority int            `yaml:"processing_priority"`
	Metadata           map[string]any `yaml:"metadata"`
}

// Load decodes a manifest from r.
func Load(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// LoadFile decodes the manifest stored at path.
func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// typeIndex resolves names used in the manifest to TypeIDs.
type typeIndex map[string]compose.TypeID

func (idx typeIndex) lookup(name string) compose.TypeID {
	if t, ok := idx[name]; ok {
		return t
	}
	return compose.Type(name)
}

func (m *Manifest) index() typeIndex {
	idx := make(typeIndex, len(m.Types))
	for _, t := range m.Types {
		if t.Open {
			idx[t.Name] = compose.OpenGeneric(t.Name)
		} else {
			idx[t.Name] = compose.Type(t.Name)
		}
	}
	return idx
}

// Type returns the TypeID the manifest uses for name.
func (m *Manifest) Type(name string) compose.TypeID {
	return m.index().lookup(name)
}

// Hierarchy returns the static hierarchy declared by the manifest.
func (m *Manifest) Hierarchy() *compose.StaticHierarchy {
	idx := m.index()
	h := compose.NewStaticHierarchy()
	for _, t := range m.Types {
		parents := make([]compose.TypeID, 0, len(t.Parents))
		for _, p := range t.Parents {
			parents = append(parents, idx.lookup(p))
		}
		h.Declare(idx.lookup(t.Name), parents...)
	}
	return h
}

// Catalog builds a catalog holding every registration of the manifest.
func (m *Manifest) Catalog(opts ...compose.Option) (*compose.Catalog, error) {
	idx := m.index()
	cat := compose.NewCatalog(m.Hierarchy(), opts...)
	for i, spec := range m.Registrations {
		b, err := spec.builder(cat, idx)
		if err != nil {
			return nil, fmt.Errorf("registration %d: %w", i, err)
		}
		if _, err := b.Register(); err != nil {
			return nil, fmt.Errorf("registration %d: %w", i, err)
		}
	}
	return cat, nil
}

func (s RegistrationSpec) builder(cat *compose.Catalog, idx typeIndex) (*compose.RegistrationBuilder, error) {
	if s.Implementation != "" && s.Factory != "" {
		return nil, fmt.Errorf("implementation and factory are mutually exclusive")
	}

	var b *compose.RegistrationBuilder
	switch {
	case s.Implementation != "":
		b = cat.ForType(idx.lookup(s.Implementation))
	case s.Factory != "":
		md := maps.Clone(s.Metadata)
		b = cat.ForFactory(idx.lookup(s.Factory), func(context.Context) (any, error) {
			return md, nil
		})
	default:
		if s.Contract == "" {
			return nil, fmt.Errorf("contract is required for a placeholder")
		}
		b = cat.ForContract(idx.lookup(s.Contract))
	}

	if s.Contract != "" {
		b.As(idx.lookup(s.Contract))
	}
	if s.Declared != "" {
		b.DeclaredAs(idx.lookup(s.Declared))
	}
	switch s.Lifetime {
	case "":
	case string(compose.LifetimeSingleton):
		b.Singleton()
	case string(compose.LifetimeScoped):
		b.Scoped()
	case string(compose.LifetimeTransient):
		b.Transient()
	default:
		return nil, fmt.Errorf("unknown lifetime %q", s.Lifetime)
	}
	for k, v := range s.Metadata {
		b.AddMetadata(k, v)
	}
	if s.Name != "" {
		b.Named(s.Name)
	}
	if s.Override {
		b.Override()
	}
	if s.OverridePriority != 0 {
		b.WithOverridePriority(s.OverridePriority)
	}
	if s.ProcessingPriority != 0 {
		b.WithProcessingPriority(s.ProcessingPriority)
	}
	if s.ExternallyOwned {
		b.ExternallyOwned()
	}
	return b.AllowMultiple(s.AllowMultiple), nil
}
