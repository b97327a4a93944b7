package templatecache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Entry is one cached template.
type Entry struct {
	Key     string `json:"key" yaml:"key"`
	Content string `json:"content" yaml:"content"`
}

// Artifact is the serialized form of a bundle. Templates keep traversal order.
type Artifact struct {
	Module    string  `json:"module" yaml:"module"`
	Templates []Entry `json:"templates" yaml:"templates"`
}

// Load decodes an artifact in the given format.
func Load(r io.Reader, format string) (*Artifact, error) {
	var a Artifact

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding json artifact: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding yaml artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}

	return &a, nil
}

// LoadFile loads an artifact, picking the format from the file extension.
func LoadFile(path string) (*Artifact, error) {
	var format string
	switch filepath.Ext(path) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("cannot infer artifact format of %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f, format)
}

// Register inserts every entry into Named(module). An empty module uses the
// module recorded in the artifact.
func (a *Artifact) Register(module string) error {
	if module == "" {
		module = a.Module
	}
	return a.RegisterInto(Named(module))
}

// RegisterInto inserts every entry into c in artifact order. Nothing is
// inserted when any key is already cached.
func (a *Artifact) RegisterInto(c *Cache) error {
	return c.PutAll(a.Templates)
}

// Keys lists the template keys in artifact order.
func (a *Artifact) Keys() []string {
	keys := make([]string, len(a.Templates))
	for i, e := range a.Templates {
		keys[i] = e.Key
	}
	return keys
}
