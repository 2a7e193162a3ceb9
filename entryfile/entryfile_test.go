package entryfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const template = `// This file is required by the test runner.
declare const require: any;
const context = require.context('./', true, /\.spec\.ts$/);
context.keys().map(context);
`

func TestGeneratedPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ts template", "src/test.ts", "src/test.specrun.ts"},
		{"nested template", "projects/app/src/test.ts", "projects/app/src/test.specrun.ts"},
		{"no extension", "src/test", "src/test.specrun"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, GeneratedPath(tt.in))
		})
	}
}

func TestImportStatements(t *testing.T) {
	got := ImportStatements([]string{"app/a.spec.ts", "app/b.spec.tsx", "app/c.spec"})
	require.Equal(t, []string{
		"import './app/a.spec';",
		"import './app/b.spec';",
		"import './app/c.spec';",
	}, got)
}

func TestSynthesize(t *testing.T) {
	tmpDir := t.TempDir()
	templatePath := filepath.Join(tmpDir, "test.ts")
	require.NoError(t, os.WriteFile(templatePath, []byte(template), 0o644))
	outputPath := GeneratedPath(templatePath)

	t.Run("rewrites template with static imports", func(t *testing.T) {
		err := Synthesize(templatePath, []string{"app/test.service.spec.ts"}, outputPath)
		require.NoError(t, err)

		out, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		text := string(out)

		require.NotContains(t, text, "require.context(")
		require.NotContains(t, text, "declare const require: any;")
		require.Contains(t, text, "const context = { keys: () => ({ map: () => { } }) };")
		require.Contains(t, text, "import './app/test.service.spec';")
		require.Contains(t, text, "context.keys().map(context);")
	})

	t.Run("emits one import per spec in resolved order", func(t *testing.T) {
		err := Synthesize(templatePath, []string{"a.spec.ts", "b.spec.ts"}, outputPath)
		require.NoError(t, err)

		out, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		text := string(out)

		require.Equal(t, 2, strings.Count(text, "import '"))
		require.Contains(t, text, "{ keys: () => ({ map: () => { } }) };\nimport './a.spec';\nimport './b.spec';")
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		specs := []string{"a.spec.ts", "b.spec.ts"}
		require.NoError(t, Synthesize(templatePath, specs, outputPath))
		first, err := os.ReadFile(outputPath)
		require.NoError(t, err)

		require.NoError(t, Synthesize(templatePath, specs, outputPath))
		second, err := os.ReadFile(outputPath)
		require.NoError(t, err)

		require.Equal(t, first, second)
	})

	t.Run("overwrites previous content entirely", func(t *testing.T) {
		require.NoError(t, Synthesize(templatePath, []string{"a.spec.ts", "b.spec.ts"}, outputPath))
		require.NoError(t, Synthesize(templatePath, []string{"a.spec.ts"}, outputPath))

		out, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		require.Equal(t, 1, strings.Count(string(out), "import '"))
	})

	t.Run("no-op when context call absent", func(t *testing.T) {
		plainPath := filepath.Join(tmpDir, "plain.ts")
		require.NoError(t, os.WriteFile(plainPath, []byte("console.log('hi');\n"), 0o644))

		outPath := GeneratedPath(plainPath)
		require.NoError(t, Synthesize(plainPath, []string{"a.spec.ts"}, outPath))

		out, err := os.ReadFile(outPath)
		require.NoError(t, err)
		require.Equal(t, "console.log('hi');\n", string(out))
	})

	t.Run("missing template is an error", func(t *testing.T) {
		err := Synthesize(filepath.Join(tmpDir, "nope.ts"), nil, outputPath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "reading entry template")
	})
}
