package curriculum

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a catalog override.
type catalogFile struct {
	Modules []Module `toml:"modules" yaml:"modules"`
}

// LoadCatalog reads a catalog from a TOML or YAML file, chosen by extension.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var f catalogFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, fmt.Errorf("decode catalog %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}

	c, err := NewCatalog(f.Modules)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault returns the built-in catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadCatalog(path)
}
