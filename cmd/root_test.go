package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"refresh", "serve", "import", "export", "report", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "leetboard", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestImportCommand_RequiredFlags(t *testing.T) {
	flag := importCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "import command should have --file flag")

	sheetFlag := importCmd.Flags().Lookup("sheet")
	require.NotNil(t, sheetFlag, "import command should have --sheet flag")
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "export command should have --out flag")
	assert.Equal(t, "leetcode_stats.csv", flag.DefValue)

	formatFlag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag, "export command should have --format flag")
}

func TestReportCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"send", "json"} {
		flag := reportCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "report should have --%s flag", flagName)
	}
}

func TestRefreshCommand_Flags(t *testing.T) {
	flag := refreshCmd.Flags().Lookup("json")
	require.NotNil(t, flag, "refresh command should have --json flag")
	assert.Equal(t, "false", flag.DefValue)
}
