package bundle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileBuilder is the default Builder: it reads the bundler config file, a
// YAML document with one top-level section per concern, and serves each
// section as a partial layer. A missing section is an empty layer, not an
// error.
type FileBuilder struct{}

func NewFileBuilder() *FileBuilder {
	return &FileBuilder{}
}

func (b *FileBuilder) Partial(concern Concern, bctx BuildContext) (Config, error) {
	data, err := os.ReadFile(bctx.BundlerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundler config at %s: %w", bctx.BundlerConfig, err)
	}

	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("failed to parse bundler config: %w", err)
	}

	layer := Config{}
	for key, value := range sections[string(concern)] {
		layer[key] = value
	}
	return layer, nil
}
