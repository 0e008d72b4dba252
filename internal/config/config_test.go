package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no config.yaml is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "precinct", cfg.Geo.PrecinctField)
	assert.Equal(t, "BoroName", cfg.Geo.BoroughField)
	assert.Equal(t, 0.5, cfg.Models.CrimeThreshold)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "safetyscope.db", cfg.Store.Path)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocode.BaseURL)
	assert.Equal(t, 1.0, cfg.Geocode.RatePerSec)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
geo:
  precinct_shapefile: /data/precincts.shp
models:
  crime_threshold: 0.6
server:
  port: 9000
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/precincts.shp", cfg.Geo.PrecinctShapefile)
	assert.Equal(t, 0.6, cfg.Models.CrimeThreshold)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "precinct", cfg.Geo.PrecinctField)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "verbose", Format: "json"}))
}
