// Package catalog holds the fixed reference data seeded at startup: the
// department list and the AI analysis options.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/hrpulse/internal/models"
)

//go:embed catalog.yaml
var embedded []byte

type Catalog struct {
	Departments []string          `yaml:"departments"`
	AIOptions   []models.AIOption `yaml:"ai_options"`
}

// Load parses a catalog document and rejects empty or duplicate entries.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(c.Departments) == 0 {
		return nil, fmt.Errorf("catalog: no departments")
	}
	seen := map[string]struct{}{}
	for i, d := range c.Departments {
		d = strings.TrimSpace(d)
		if d == "" {
			return nil, fmt.Errorf("catalog: department %d is empty", i)
		}
		if _, ok := seen[d]; ok {
			return nil, fmt.Errorf("catalog: duplicate department %q", d)
		}
		seen[d] = struct{}{}
		c.Departments[i] = d
	}
	keys := map[string]struct{}{}
	for i, o := range c.AIOptions {
		if strings.TrimSpace(o.Key) == "" {
			return nil, fmt.Errorf("catalog: ai option %d has no key", i)
		}
		if _, ok := keys[o.Key]; ok {
			return nil, fmt.Errorf("catalog: duplicate ai option %q", o.Key)
		}
		keys[o.Key] = struct{}{}
	}
	return &c, nil
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(embedded))
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) HasAIOption(key string) bool {
	for _, o := range c.AIOptions {
		if o.Key == key {
			return true
		}
	}
	return false
}

// AIOption returns the option with key, or nil.
func (c *Catalog) AIOption(key string) *models.AIOption {
	for i := range c.AIOptions {
		if c.AIOptions[i].Key == key {
			o := c.AIOptions[i]
			return &o
		}
	}
	return nil
}
