package pricing

import (
	"fmt"
	"os"
	"strings"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"gopkg.in/yaml.v3"
)

// Endpoint is the price and HTTP verb of one API operation.
type Endpoint struct {
	ID     string       `yaml:"id"`
	Method model.Method `yaml:"method"`
	Cost   float64      `yaml:"cost"`
}

// Table is the YAML form of a pricing override file.
type Table struct {
	Updated     string     `yaml:"updated,omitempty"`
	DefaultCost *float64   `yaml:"default_cost,omitempty"`
	Operations  []Endpoint `yaml:"operations"`
}

// LoadTable reads a YAML pricing file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file %s: %w", path, err)
	}
	t, err := LoadTableFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("pricing file %s: %w", path, err)
	}
	return t, nil
}

// LoadTableFromBytes parses and validates YAML pricing data.
func LoadTableFromBytes(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse pricing data: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) normalize() error {
	if t.DefaultCost != nil && *t.DefaultCost < 0 {
		return fmt.Errorf("default_cost must not be negative")
	}
	for i := range t.Operations {
		ep := &t.Operations[i]
		if _, err := model.ParseOperation(ep.ID); err != nil {
			return err
		}
		if ep.Cost < 0 {
			return fmt.Errorf("operation %s: cost must not be negative", ep.ID)
		}
		ep.Method = model.Method(strings.ToUpper(string(ep.Method)))
		switch ep.Method {
		case "":
			ep.Method = DefaultMethod
		case model.MethodGet, model.MethodPost, model.MethodPut, model.MethodDelete:
		default:
			return fmt.Errorf("operation %s: unsupported method %q", ep.ID, ep.Method)
		}
	}
	return nil
}
