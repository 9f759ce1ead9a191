package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command in-process with the given arguments.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCommands_ArgumentValidation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{
			name:        "check-render needs a render id",
			args:        []string{"check-render"},
			errorString: "accepts 1 arg(s)",
		},
		{
			name:        "analyze-style needs a name",
			args:        []string{"analyze-style", "--description", "soft light"},
			errorString: "required",
		},
		{
			name:        "generate needs an idea",
			args:        []string{"generate", "--duration", "30s"},
			errorString: "idea is required",
		},
		{
			name:        "generate rejects unknown duration",
			args:        []string{"generate", "--idea", "sunrise", "--duration", "45s"},
			errorString: "duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { genIdea, genDuration = "", "30s" })

			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestMigrateCommand_List(t *testing.T) {
	t.Cleanup(func() { migrateList = false })

	out, err := execute(t, "migrate", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "001_init.sql")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "generate", "check-render", "watch", "analyze-style", "migrate", "generations"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
