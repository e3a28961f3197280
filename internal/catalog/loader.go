package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Index is the catalog.yaml file at the root of a search path. It names
// the machine definition files to load.
type Index struct {
	Site     string   `yaml:"site"`
	Machines []string `yaml:"machines"`
}

type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// Load reads and validates one machine definition by file stem.
func (l *Loader) Load(machineFile string) (*MachineDefinition, error) {
	// Cache-Check
	if cached, ok := l.cache.Load(machineFile); ok {
		return cached.(*MachineDefinition), nil
	}

	var data []byte
	var err error
	var foundPath string

	for _, searchPath := range l.searchPaths {
		fullPath := filepath.Join(searchPath, machineFile+".json")
		data, err = os.ReadFile(fullPath)
		if err == nil {
			foundPath = fullPath
			break
		}
	}

	if data == nil {
		return nil, fmt.Errorf("machine definition not found: %s (searched in: %v)", machineFile, l.searchPaths)
	}

	if err := l.validator.ValidateDefinition(data); err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	var def MachineDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal machine definition: %w", err)
	}

	l.cache.Store(machineFile, &def)

	return &def, nil
}

// LoadIndex reads the first catalog.yaml found on the search paths.
func (l *Loader) LoadIndex() (*Index, error) {
	for _, searchPath := range l.searchPaths {
		data, err := os.ReadFile(filepath.Join(searchPath, "catalog.yaml"))
		if err != nil {
			continue
		}

		var idx Index
		if err := yaml.Unmarshal(data, &idx); err != nil {
			return nil, fmt.Errorf("failed to parse catalog index: %w", err)
		}
		return &idx, nil
	}
	return nil, fmt.Errorf("catalog.yaml not found (searched in: %v)", l.searchPaths)
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}
