package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/docsearch/pkg/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at an empty temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{EnvConfig, EnvEngine, EnvWorkers, EnvMatchTimeout, EnvOutput} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "regexp2", cfg.Engine)
	assert.Empty(t, cfg.Path)
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	dir := isolate(t)
	yml := `engine: coregex
match_timeout: 250ms
workers: 4
parallel_threshold: 64
min_score: 2
rules_include:
  - ds\.finance\..*
extract: false
output: results.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "coregex", cfg.Engine)
	assert.Equal(t, 250*time.Millisecond, cfg.MatchTimeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 64, cfg.ParallelThreshold)
	assert.Equal(t, 2, cfg.MinScore)
	assert.Equal(t, []string{`ds\.finance\..*`}, cfg.RulesInclude)
	assert.False(t, cfg.Extract)
	assert.Equal(t, "results.db", cfg.Output)
	assert.Equal(t, FileName, cfg.Path)

	// Unset keys keep their defaults.
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
}

func TestLoad_XDGFile(t *testing.T) {
	dir := isolate(t)
	xdg := filepath.Join(dir, "xdg", "docsearch")
	require.NoError(t, os.MkdirAll(xdg, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "config.yaml"), []byte("workers: 3\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoad_ExplicitMissing(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_EnvConfigPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: custom.db\n"), 0644))
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.Output)
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("engine: regexp2\nworkers: 2\n"), 0644))
	t.Setenv(EnvEngine, "coregex")
	t.Setenv(EnvWorkers, "8")
	t.Setenv(EnvMatchTimeout, "2s")
	t.Setenv(EnvOutput, "postgres://localhost/docsearch")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "coregex", cfg.Engine)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.MatchTimeout)
	assert.Equal(t, "postgres://localhost/docsearch", cfg.Output)
}

func TestLoad_BadEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvWorkers, "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvWorkers)
}

func TestParse_UnknownKey(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("engin: coregex\n"), cfg)
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, cfg))
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown engine", func(c *Config) { c.Engine = "pcre" }, "unknown regex engine"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"negative threshold", func(c *Config) { c.ParallelThreshold = -1 }, "parallel_threshold"},
		{"negative timeout", func(c *Config) { c.MatchTimeout = -time.Second }, "match_timeout"},
		{"zero min score", func(c *Config) { c.MinScore = 0 }, "min_score"},
		{"zero file size", func(c *Config) { c.MaxFileSize = 0 }, "max_file_size"},
		{"known kinds", func(c *Config) { c.Kinds = []string{"text", "pdf"} }, ""},
		{"unknown kind", func(c *Config) { c.Kinds = []string{"image"} }, "unknown document kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocumentKinds(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.DocumentKinds())

	cfg.Kinds = []string{"text,office"}
	assert.Equal(t, []enum.Kind{enum.KindText, enum.KindOffice}, cfg.DocumentKinds())

	cfg.Kinds = []string{"image"}
	assert.Nil(t, cfg.DocumentKinds())
}

func TestNewEngine(t *testing.T) {
	cfg := Default()
	cfg.Engine = "coregex"
	engine, err := cfg.NewEngine()
	require.NoError(t, err)
	assert.Equal(t, "coregex", engine.Name())
}
