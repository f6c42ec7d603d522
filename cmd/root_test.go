package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"analyze", "serve", "runs", "boundary", "invest", "proximity"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "access-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{
		"population", "facilities", "boundary", "skip-boundary",
		"region-col", "ratio-col", "households-col", "address-col", "category-col",
		"by-category", "format", "out",
	} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), "analyze should have --%s", name)
	}

	top := analyzeCmd.Flags().Lookup("top")
	require.NotNil(t, top)
	assert.Equal(t, "10", top.DefValue)

	w := analyzeCmd.Flags().Lookup("ratio-weight")
	require.NotNil(t, w)
	assert.Equal(t, "1", w.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "show", "regions", "stats"} {
		assert.True(t, names[name], "expected runs subcommand %q not found", name)
	}

	limit := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)
}

func TestBoundaryCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range boundaryCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["fetch"])
	assert.True(t, names["inspect"])
	assert.True(t, names["download"])
}

func TestInvestCommand_Flags(t *testing.T) {
	method := investCmd.Flags().Lookup("method")
	require.NotNil(t, method)
	assert.Equal(t, "compound", method.DefValue)

	years := investCmd.Flags().Lookup("years")
	require.NotNil(t, years)
	assert.Equal(t, "10", years.DefValue)
}
