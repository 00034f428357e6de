package declare

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Tables []Table `yaml:"tables"`
}

// ParseYAML decodes a YAML declaration document. Unknown fields are
// rejected so typos surface as errors.
func ParseYAML(data []byte) ([]Table, error) {
	var f yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Tables) == 0 {
		return nil, &Error{Message: "no table declarations found"}
	}
	for i, t := range f.Tables {
		if t.Name == "" {
			return nil, &Error{Message: fmt.Sprintf("tables[%d]: name is required", i)}
		}
		for j, c := range t.Columns {
			if c.Name == "" {
				return nil, &Error{Table: t.Name, Message: fmt.Sprintf("columns[%d]: name is required", j)}
			}
		}
	}
	return f.Tables, nil
}

// LoadYAML reads and parses a YAML declaration file.
func LoadYAML(path string) ([]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	return ParseYAML(data)
}

// Load reads declarations from path: a directory is a CUE package, a .cue
// file a single CUE document and anything else YAML.
func Load(path string) ([]Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("declarations: %w", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}
	if filepath.Ext(path) == ".cue" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read declaration file: %w", err)
		}
		return ParseCUESource(path, data)
	}
	return LoadYAML(path)
}
