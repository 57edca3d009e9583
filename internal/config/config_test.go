package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bpmsyncd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bpm_min: 70\nbpm_max: 200\ndevice_name: \"loft\"\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 70.0, cfg.BPMMin)
	assert.Equal(t, 200.0, cfg.BPMMax)
	assert.Equal(t, "loft", cfg.DeviceName)
	// untouched fields keep their defaults
	assert.Equal(t, Default().SampleRate, cfg.SampleRate)
}

func TestFlagOverridesWinOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bpmsyncd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device_name: \"loft\"\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--device-name=porch"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "porch", cfg.DeviceName)
}

func TestBPMConfigReflectsOverrides(t *testing.T) {
	d := Default()
	d.BPMMin = 80
	d.BPMMax = 160
	bc := d.BPMConfig()
	assert.Equal(t, 80.0, bc.BPMRange.Min)
	assert.Equal(t, 160.0, bc.BPMRange.Max)
}
