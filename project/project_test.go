package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bundler-infra/specrun/types"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "specrun.yaml")
	configYAML := `
entryFile: test.ts
browsers:
  - Chrome
  - Firefox
reporters:
  - progress
singleRun: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))

	t.Run("valid config", func(t *testing.T) {
		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.Equal(t, "test.ts", cfg.EntryFile)
		require.Equal(t, []string{"Chrome", "Firefox"}, cfg.Browsers)
		require.Equal(t, []string{"progress"}, cfg.Reporters)
		require.True(t, cfg.SingleRun)
	})

	t.Run("entry file defaults when omitted", func(t *testing.T) {
		minimalPath := filepath.Join(tmpDir, "minimal.yaml")
		require.NoError(t, os.WriteFile(minimalPath, []byte("browsers: [Chrome]\n"), 0o644))

		cfg, err := Load(minimalPath)
		require.NoError(t, err)
		require.Equal(t, "test.ts", cfg.EntryFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(tmpDir, "nonexistent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		badPath := filepath.Join(tmpDir, "bad.yaml")
		require.NoError(t, os.WriteFile(badPath, []byte("entryFile: [\n"), 0o644))

		_, err := Load(badPath)
		require.Error(t, err)
	})
}

func TestEntryTemplate(t *testing.T) {
	cfg := &Config{EntryFile: "test.ts"}
	require.Equal(t, filepath.Join("proj", "src", "test.ts"), cfg.EntryTemplate(filepath.Join("proj", "src")))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{
		Browsers:  []string{"Chrome", "Firefox"},
		Reporters: []string{"progress"},
	}

	t.Run("fills unset options", func(t *testing.T) {
		opts := types.RunOptions{}
		cfg.ApplyDefaults(&opts)
		require.Equal(t, "Chrome,Firefox", opts.Browsers)
		require.Equal(t, []string{"progress"}, opts.Reporters)
	})

	t.Run("caller options stay authoritative", func(t *testing.T) {
		opts := types.RunOptions{
			Browsers:  "ChromeHeadless",
			Reporters: []string{"junit"},
		}
		cfg.ApplyDefaults(&opts)
		require.Equal(t, "ChromeHeadless", opts.Browsers)
		require.Equal(t, []string{"junit"}, opts.Reporters)
	})
}
