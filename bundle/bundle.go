// Package bundle assembles the merged bundler configuration for a test run.
//
// Partial configurations are produced by an injected Builder, one per named
// concern, and layered in a fixed precedence order. The merge is an explicit
// recursive merge: map values merge key-wise, later layers win on scalar
// conflict, and array values override wholesale rather than concatenating.
package bundle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// Config is a mergeable bundler configuration fragment.
type Config map[string]any

// entryKey designates the bundle's entry point within a merged config.
const entryKey = "entry"

// Concern names one independently built configuration layer.
type Concern string

const (
	ConcernCommon    Concern = "common"
	ConcernStyles    Concern = "styles"
	ConcernTestNoAOT Concern = "test-no-aot"
	ConcernTest      Concern = "test"
)

// layerOrder is the fixed precedence order; later layers win.
var layerOrder = []Concern{ConcernCommon, ConcernStyles, ConcernTestNoAOT, ConcernTest}

// BuildContext carries the paths a Builder needs to produce a partial
// configuration.
type BuildContext struct {
	ProjectRoot     string
	SourceRoot      string
	BundlerConfig   string
	FrameworkConfig string
}

// Builder produces one partial bundler configuration per concern. It is a
// black box to this package; the host application injects an implementation
// at startup.
type Builder interface {
	Partial(concern Concern, bctx BuildContext) (Config, error)
}

// Assembler merges builder layers and retargets the entry point when spec
// selection is active.
type Assembler struct {
	builder Builder
	log     log.Logger
}

func NewAssembler(builder Builder, log log.Logger) (*Assembler, error) {
	if builder == nil {
		return nil, fmt.Errorf("config builder is required")
	}
	return &Assembler{builder: builder, log: log}, nil
}

// Assemble builds every layer in precedence order, merges them, and when
// generatedEntry is non-empty rewrites the entry key to the synthesized
// file. The entry rewrite happens strictly after the merge so no layer can
// re-override the selected entry point.
func (a *Assembler) Assemble(bctx BuildContext, generatedEntry string) (Config, error) {
	layers := make([]Config, 0, len(layerOrder))
	for _, concern := range layerOrder {
		layer, err := a.builder.Partial(concern, bctx)
		if err != nil {
			return nil, fmt.Errorf("building %s config layer: %w", concern, err)
		}
		layers = append(layers, layer)
	}

	merged := Merge(layers...)
	if generatedEntry != "" {
		a.RetargetEntry(merged, generatedEntry)
	}
	return merged, nil
}

// RetargetEntry points the merged config's entry key at the synthesized
// file, replacing whatever the layers computed. Callers invoke it only
// after merging, so no layer can override the selection.
func (a *Assembler) RetargetEntry(cfg Config, generatedEntry string) {
	a.log.Debug("Retargeting bundle entry", "entry", generatedEntry)
	cfg[entryKey] = generatedEntry
}

// Entry returns the bundle's entry point, or "" when unset.
func (c Config) Entry() string {
	if v, ok := c[entryKey].(string); ok {
		return v
	}
	return ""
}

// Merge deep-merges layers left to right into a fresh Config. Map values
// merge recursively; any other value set by a later layer, arrays included,
// replaces the earlier one.
func Merge(layers ...Config) Config {
	merged := Config{}
	for _, layer := range layers {
		mergeInto(merged, layer)
	}
	return merged
}

func mergeInto(dst Config, src Config) {
	for key, value := range src {
		if srcMap, ok := toConfig(value); ok {
			if dstMap, ok := toConfig(dst[key]); ok {
				sub := Config{}
				mergeInto(sub, dstMap)
				mergeInto(sub, srcMap)
				dst[key] = sub
				continue
			}
			sub := Config{}
			mergeInto(sub, srcMap)
			dst[key] = sub
			continue
		}
		dst[key] = cloneValue(value)
	}
}

func toConfig(v any) (Config, bool) {
	switch m := v.(type) {
	case Config:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// cloneValue copies slices so a merged config never aliases a layer's
// backing array.
func cloneValue(v any) any {
	if s, ok := v.([]any); ok {
		c := make([]any, len(s))
		for i := range s {
			if m, ok := toConfig(s[i]); ok {
				sub := Config{}
				mergeInto(sub, m)
				c[i] = sub
				continue
			}
			c[i] = s[i]
		}
		return c
	}
	return v
}
