package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"fetch", "sync", "prepare", "stats", "runs", "config"} {
		assert.True(t, names[want], want)
	}
}

func TestPrepareCommand_Defaults(t *testing.T) {
	flag := prepareCmd.Flags().Lookup("type")
	require.NotNil(t, flag)
	assert.Equal(t, "Flat", flag.DefValue)
}

func TestStatsCommand_Defaults(t *testing.T) {
	by := statsCmd.Flags().Lookup("by")
	require.NotNil(t, by)
	assert.Equal(t, "age", by.DefValue)

	format := statsCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "table", format.DefValue)
}
