package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type buildConfig struct {
	Version    string
	SortTables bool
	Streams    []string
}

var errEmptyVersion = errors.New("version string must not be empty")

func withVersion(v string) Option[*buildConfig] {
	return New(func(c *buildConfig) error {
		if v == "" {
			return errEmptyVersion
		}
		c.Version = v

		return nil
	})
}

func withSort(enabled bool) Option[*buildConfig] {
	return NoError(func(c *buildConfig) { c.SortTables = enabled })
}

func withStream(name string) Option[*buildConfig] {
	return NoError(func(c *buildConfig) { c.Streams = append(c.Streams, name) })
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &buildConfig{}
		err := Apply(cfg, withVersion("v4.0.30319"), withSort(true), withStream("#Pdb"), withStream("#JTD"))

		require.NoError(t, err)
		require.Equal(t, "v4.0.30319", cfg.Version)
		require.True(t, cfg.SortTables)
		require.Equal(t, []string{"#Pdb", "#JTD"}, cfg.Streams)
	})

	t.Run("later options win", func(t *testing.T) {
		cfg := &buildConfig{}
		require.NoError(t, Apply(cfg, withSort(true), withSort(false)))
		require.False(t, cfg.SortTables)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &buildConfig{}
		err := Apply(cfg, withSort(true), withVersion(""), withStream("#Pdb"))

		require.ErrorIs(t, err, errEmptyVersion)
		require.True(t, cfg.SortTables)
		require.Empty(t, cfg.Streams)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &buildConfig{}
		require.NoError(t, Apply(cfg, nil, withSort(true)))
		require.True(t, cfg.SortTables)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &buildConfig{Version: "v2.0.50727"}
		require.NoError(t, Apply(cfg))
		require.Equal(t, "v2.0.50727", cfg.Version)
	})
}

func TestGenericTargets(t *testing.T) {
	var n uint32
	require.NoError(t, Apply(&n, NoError(func(p *uint32) { *p = 0x424A5342 })))
	require.Equal(t, uint32(0x424A5342), n)
}
