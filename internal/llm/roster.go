package llm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rosterFile struct {
	Agents []AgentConfig `yaml:"agents"`
}

var defaultRosterPaths = []string{
	os.Getenv("AGENTS_CONFIG_PATH"),
	"/app/config/agents.yaml",
	"./config/agents.yaml",
	"../../config/agents.yaml",
}

// LoadRoster reads the agent roster from path, or from the default search
// paths when path is empty. When no file is found it falls back to a
// built-in roster pointed at OPENAI_BASE_URL.
func LoadRoster(path string) ([]AgentConfig, error) {
	paths := defaultRosterPaths
	if path != "" {
		paths = []string{path}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var rf rosterFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent roster from %s: %w", p, err)
		}
		if len(rf.Agents) == 0 {
			return nil, fmt.Errorf("agent roster %s defines no agents", p)
		}
		return rf.Agents, nil
	}

	if path != "" {
		return nil, fmt.Errorf("agent roster not found at %s", path)
	}
	return defaultRoster(), nil
}

func defaultRoster() []AgentConfig {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	mk := func(role, model string) AgentConfig {
		return AgentConfig{
			Role:      role,
			Provider:  "openai",
			Model:     model,
			BaseURL:   baseURL,
			APIKeyEnv: "OPENAI_API_KEY",
			RPM:       30,
			TimeoutS:  60,
		}
	}
	return []AgentConfig{
		mk(RoleGenerator, "gpt-4o"),
		mk(RoleCritic1, "gpt-4o-mini"),
		mk(RoleCritic2, "gpt-4o-mini"),
	}
}
