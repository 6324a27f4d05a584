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

	for _, name := range []string{"run", "consolidate", "catalog", "outputs", "runs", "ask"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "finextract", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "input", "limit", "concurrency"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s flag", name)
	}
	limit := runCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "0", limit.DefValue)
}

func TestOutputsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range outputsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "cleanup", "links"} {
		assert.True(t, names[name], "outputs should have subcommand %q", name)
	}
	assert.NotNil(t, outputsCleanupCmd.Flags().Lookup("days"))
}

func TestRunsCommand_Flags(t *testing.T) {
	assert.NotNil(t, runsListCmd.Flags().Lookup("status"))
	limit := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	assert.Error(t, askCmd.Args(askCmd, nil))
	assert.NoError(t, askCmd.Args(askCmd, []string{"what", "changed?"}))
}
