package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRosterFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - role: generator
    model: gpt-4o
    base_url: https://api.openai.com/v1
    rpm: 10
  - role: critic1
    model: gpt-4o-mini
    base_url: https://api.openai.com/v1
  - role: critic2
    model: deepseek-chat
    base_url: https://api.deepseek.com/v1
`), 0o644))

	agents, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, agents, 3)
	require.Equal(t, "gpt-4o", agents[0].Model)
	require.Equal(t, 10, agents[0].RPM)
}

func TestLoadRosterMissingExplicitPath(t *testing.T) {
	_, err := LoadRoster("/nonexistent/agents.yaml")
	require.Error(t, err)
}

func TestLoadRosterDefaultFallback(t *testing.T) {
	// No path and no config files present: the built-in roster applies.
	agents, err := LoadRoster("")
	require.NoError(t, err)
	require.Len(t, agents, 3)

	roles := map[string]bool{}
	for _, a := range agents {
		roles[a.Role] = true
	}
	require.True(t, roles[RoleGenerator])
	require.True(t, roles[RoleCritic1])
	require.True(t, roles[RoleCritic2])
}

func TestLoadRosterEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents: []\n"), 0o644))

	_, err := LoadRoster(path)
	require.Error(t, err)
}
