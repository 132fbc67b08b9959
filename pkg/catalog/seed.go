package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Foods []FoodItem `yaml:"foods"`
}

// ParseSeed reads a YAML document with a top-level "foods" list.
func ParseSeed(r io.Reader) ([]FoodItem, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for _, item := range file.Foods {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Foods, nil
}

// DefaultSeed returns the menu bundled with the binary.
func DefaultSeed() ([]FoodItem, error) {
	return ParseSeed(bytes.NewReader(defaultSeed))
}
