package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/structsync/structsync/schema"
)

type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string       `yaml:"name"`
	Columns []yamlColumn `yaml:"columns"`
}

type yamlColumn struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Nullable *bool   `yaml:"nullable"` // unset means nullable, MySQL's default
	Default  *string `yaml:"default"`
	Extra    string  `yaml:"extra"`
}

// LoadYAML reads a YAML target structure file.
func LoadYAML(filename string) (schema.Schema, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading structure file: %w", err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	target := schema.Schema{}
	for _, t := range yf.Tables {
		if _, dup := target[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %s in %s", t.Name, filename)
		}
		table := schema.Table{}
		for _, c := range t.Columns {
			if _, dup := table[c.Name]; dup {
				return nil, fmt.Errorf("duplicate column %s.%s in %s", t.Name, c.Name, filename)
			}
			nullable := true
			if c.Nullable != nil {
				nullable = *c.Nullable
			}
			table[c.Name] = schema.Column{
				Type:     c.Type,
				Nullable: nullable,
				Default:  c.Default,
				Extra:    c.Extra,
			}
		}
		target[t.Name] = table
	}
	return target, nil
}
