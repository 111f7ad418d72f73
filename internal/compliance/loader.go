package compliance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML layout
type catalogFile struct {
	Version  string        `yaml:"version"`
	Policies []PolicyLimit `yaml:"policies"`
}

// LoadedCatalog is a catalog read from disk together with its content digest
type LoadedCatalog struct {
	Catalog *Catalog
	Version string
	Digest  string
	Path    string
}

// LoadCatalog reads a YAML policy file and builds a validated catalog
func LoadCatalog(path string) (LoadedCatalog, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedCatalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	loaded, err := ParseCatalog(data)
	if err != nil {
		return LoadedCatalog{}, fmt.Errorf("%s: %w", path, err)
	}
	loaded.Path = path
	return loaded, nil
}

// ParseCatalog builds a catalog from YAML bytes
func ParseCatalog(data []byte) (LoadedCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return LoadedCatalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c, err := NewCatalog(f.Policies)
	if err != nil {
		return LoadedCatalog{}, fmt.Errorf("invalid catalog: %w", err)
	}

	sum := sha256.Sum256(data)
	return LoadedCatalog{
		Catalog: c,
		Version: f.Version,
		Digest:  "sha256:" + hex.EncodeToString(sum[:]),
	}, nil
}

// MarshalCatalog renders a catalog in the same YAML layout LoadCatalog reads
func MarshalCatalog(c *Catalog, version string) ([]byte, error) {
	return yaml.Marshal(catalogFile{Version: version, Policies: c.List()})
}
