package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	require.NoError(t, c.Validate())
	assert.Equal(t, "medium", c.Extract.Granularity)
	assert.Equal(t, "AKU", c.IDs.Prefix)
	assert.Equal(t, 0.6, c.Links.SimilarityThreshold)
	assert.Equal(t, 0.5, c.Links.AutoLinkThreshold)
	assert.Equal(t, BackendFile, c.Output.Backend)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad granularity", func(c *Config) { c.Extract.Granularity = "huge" }, false},
		{"empty prefix", func(c *Config) { c.IDs.Prefix = "" }, false},
		{"similarity out of range", func(c *Config) { c.Links.SimilarityThreshold = 1.5 }, false},
		{"auto-link out of range", func(c *Config) { c.Links.AutoLinkThreshold = -0.1 }, false},
		{"unknown backend", func(c *Config) { c.Output.Backend = "s3" }, false},
		{"nats without url", func(c *Config) { c.Output.Backend = BackendNATS }, false},
		{"nats with url", func(c *Config) {
			c.Output.Backend = BackendNATS
			c.NATS.URL = "nats://localhost:4222"
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(c)
			if tc.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "zettelforge.yaml")

	c := DefaultConfig()
	c.IDs.Prefix = "KNW"
	c.Source.Roots = []string{"docs/**"}
	require.NoError(t, c.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "KNW", loaded.IDs.Prefix)
	assert.Equal(t, []string{"docs/**"}, loaded.Source.Roots)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Extract: ExtractConfig{Granularity: "fine"},
		IDs:     IDConfig{Prefix: "KNW"},
		Links:   LinkConfig{AutoLinkThreshold: 0.7},
		NATS:    NATSConfig{URL: "nats://localhost:4222"},
	})

	assert.Equal(t, "fine", base.Extract.Granularity)
	assert.Equal(t, "KNW", base.IDs.Prefix)
	assert.Equal(t, 0.7, base.Links.AutoLinkThreshold)
	// Unset fields keep their defaults.
	assert.Equal(t, 0.6, base.Links.SimilarityThreshold)
	assert.Equal(t, "knowledge-base", base.Output.Dir)
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
}

func TestMergeNil(t *testing.T) {
	base := DefaultConfig()
	base.Merge(nil)
	assert.NoError(t, base.Validate())
}
