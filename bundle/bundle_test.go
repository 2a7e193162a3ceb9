package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Run("later layer wins on scalar conflict", func(t *testing.T) {
		merged := Merge(
			Config{"mode": "development", "devtool": "eval"},
			Config{"mode": "test"},
		)
		require.Equal(t, "test", merged["mode"])
		require.Equal(t, "eval", merged["devtool"])
	})

	t.Run("map values merge recursively", func(t *testing.T) {
		merged := Merge(
			Config{"resolve": map[string]any{"extensions": "a", "symlinks": true}},
			Config{"resolve": map[string]any{"extensions": "b"}},
		)
		resolve, ok := merged["resolve"].(Config)
		require.True(t, ok)
		require.Equal(t, "b", resolve["extensions"])
		require.Equal(t, true, resolve["symlinks"])
	})

	t.Run("arrays override instead of concatenating", func(t *testing.T) {
		merged := Merge(
			Config{"plugins": []any{"common"}},
			Config{"plugins": []any{"test"}},
		)
		require.Equal(t, []any{"test"}, merged["plugins"])
	})

	t.Run("merged config does not alias layer slices", func(t *testing.T) {
		layer := Config{"plugins": []any{"common"}}
		merged := Merge(layer)
		merged["plugins"].([]any)[0] = "mutated"
		require.Equal(t, "common", layer["plugins"].([]any)[0])
	})
}

// recordingBuilder captures the concern order and serves canned layers.
type recordingBuilder struct {
	concerns []Concern
	layers   map[Concern]Config
	err      error
}

func (b *recordingBuilder) Partial(concern Concern, _ BuildContext) (Config, error) {
	b.concerns = append(b.concerns, concern)
	if b.err != nil {
		return nil, b.err
	}
	return b.layers[concern], nil
}

func TestAssembler(t *testing.T) {
	logger := log.New()

	t.Run("builds layers in precedence order", func(t *testing.T) {
		builder := &recordingBuilder{layers: map[Concern]Config{}}
		a, err := NewAssembler(builder, logger)
		require.NoError(t, err)

		_, err = a.Assemble(BuildContext{}, "")
		require.NoError(t, err)
		require.Equal(t, []Concern{ConcernCommon, ConcernStyles, ConcernTestNoAOT, ConcernTest}, builder.concerns)
	})

	t.Run("generated entry replaces every layer's entry", func(t *testing.T) {
		builder := &recordingBuilder{layers: map[Concern]Config{
			ConcernCommon: {"entry": "src/test.ts"},
			ConcernTest:   {"entry": "src/other.ts"},
		}}
		a, err := NewAssembler(builder, logger)
		require.NoError(t, err)

		merged, err := a.Assemble(BuildContext{}, "src/test.specrun.ts")
		require.NoError(t, err)
		require.Equal(t, "src/test.specrun.ts", merged.Entry())
	})

	t.Run("entry untouched without spec selection", func(t *testing.T) {
		builder := &recordingBuilder{layers: map[Concern]Config{
			ConcernCommon: {"entry": "src/test.ts"},
		}}
		a, err := NewAssembler(builder, logger)
		require.NoError(t, err)

		merged, err := a.Assemble(BuildContext{}, "")
		require.NoError(t, err)
		require.Equal(t, "src/test.ts", merged.Entry())
	})

	t.Run("builder error propagates with concern name", func(t *testing.T) {
		builder := &recordingBuilder{err: fmt.Errorf("boom")}
		a, err := NewAssembler(builder, logger)
		require.NoError(t, err)

		_, err = a.Assemble(BuildContext{}, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "common config layer")
	})

	t.Run("nil builder rejected", func(t *testing.T) {
		_, err := NewAssembler(nil, logger)
		require.Error(t, err)
	})
}

func TestFileBuilder(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bundler.yaml")
	configYAML := `
common:
  entry: src/test.ts
  mode: development
test:
  mode: test
`
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))

	builder := NewFileBuilder()
	bctx := BuildContext{BundlerConfig: configPath}

	t.Run("serves each concern section as a layer", func(t *testing.T) {
		layer, err := builder.Partial(ConcernCommon, bctx)
		require.NoError(t, err)
		require.Equal(t, "src/test.ts", layer["entry"])
		require.Equal(t, "development", layer["mode"])
	})

	t.Run("missing section is an empty layer", func(t *testing.T) {
		layer, err := builder.Partial(ConcernStyles, bctx)
		require.NoError(t, err)
		require.Empty(t, layer)
	})

	t.Run("layers merge with later section winning", func(t *testing.T) {
		a, err := NewAssembler(builder, log.New())
		require.NoError(t, err)

		merged, err := a.Assemble(bctx, "")
		require.NoError(t, err)
		require.Equal(t, "test", merged["mode"])
		require.Equal(t, "src/test.ts", merged.Entry())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := builder.Partial(ConcernCommon, BuildContext{BundlerConfig: filepath.Join(tmpDir, "nope.yaml")})
		require.Error(t, err)
	})
}
