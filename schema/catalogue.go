package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed "catalogue.yaml"
var builtinCatalogue []byte

// Catalogue is a set of sources keyed by lower case name.
type Catalogue struct {
	sources map[string]*Source
}

type catalogueFile struct {
	Sources []*Source `yaml:"sources"`
}

// Builtin returns the catalogue shipped with the module.
func Builtin() (*Catalogue, error) {
	cat, err := ParseCatalogue(builtinCatalogue)
	if err != nil {
		return nil, fmt.Errorf("builtin catalogue: %w", err)
	}
	return cat, nil
}

// LoadCatalogue reads a catalogue from a YAML file.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := ParseCatalogue(data)
	if err != nil {
		return nil, fmt.Errorf("load catalogue %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalogue decodes and validates every source in data.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return NewCatalogue(file.Sources...)
}

func NewCatalogue(sources ...*Source) (*Catalogue, error) {
	cat := &Catalogue{sources: make(map[string]*Source, len(sources))}
	for _, src := range sources {
		if src == nil {
			continue
		}
		if err := src.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(src.Name)
		if _, dup := cat.sources[key]; dup {
			return nil, fmt.Errorf("source %q is defined twice", src.Name)
		}
		cat.sources[key] = src
	}
	return cat, nil
}

// Get looks a source up by name, ignoring case.
func (c *Catalogue) Get(name string) (*Source, bool) {
	src, ok := c.sources[strings.ToLower(name)]
	return src, ok
}

// Names returns the source names in alphabetical order.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.sources))
	for _, src := range c.sources {
		names = append(names, src.Name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalogue) Len() int {
	return len(c.sources)
}
