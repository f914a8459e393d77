package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/decktools/internal/version"
)

func TestVersionCommand_Human(t *testing.T) {
	stdout, _, err := executeCommand("version")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "decktools "))
	assert.Contains(t, stdout, version.GetInfo().Version)
}

func TestVersionCommand_Short(t *testing.T) {
	stdout, _, err := executeCommand("version", "--short")
	require.NoError(t, err)

	assert.Equal(t, version.GetInfo().Version+"\n", stdout)
}

func TestVersionCommand_JSON(t *testing.T) {
	stdout, _, err := executeCommand("version", "--json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))

	assert.Equal(t, version.GetInfo(), info)
}

func TestVersionCommand_ExclusiveFlags(t *testing.T) {
	_, _, err := executeCommand("version", "--json", "--short")
	require.Error(t, err)
}

func TestVersionCommand_NoArgs(t *testing.T) {
	_, _, err := executeCommand("version", "extra")
	require.Error(t, err)
}

func TestVersionCommand_IgnoresBrokenConfig(t *testing.T) {
	_, _, err := executeCommand("--config", "/nonexistent/path.yaml", "version")
	require.NoError(t, err)
}
