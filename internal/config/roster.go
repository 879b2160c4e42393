package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/quorum/internal/review"
)

// rosterFile is the YAML shape of an agent roster.
type rosterFile struct {
	Agents []rosterAgent `yaml:"agents"`
}

type rosterAgent struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	FocusAreas []string          `yaml:"focusAreas"`
	Vocabulary *rosterVocabulary `yaml:"vocabulary,omitempty"`
}

type rosterVocabulary struct {
	Critical []string `yaml:"critical"`
	High     []string `yaml:"high"`
	Medium   []string `yaml:"medium"`
	Low      []string `yaml:"low"`
}

// LoadRoster reads a YAML agent roster. Entries reusing a built-in agent id
// override that agent; new ids define custom agents.
func LoadRoster(path string) ([]review.AgentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster parses YAML roster content into agent specs. Every entry needs
// an id and at least one focus area; the display name defaults to the id.
func ParseRoster(data []byte) ([]review.AgentSpec, error) {
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	if len(rf.Agents) == 0 {
		return nil, fmt.Errorf("roster defines no agents")
	}

	specs := make([]review.AgentSpec, 0, len(rf.Agents))
	seen := make(map[string]bool)
	for i, a := range rf.Agents {
		if a.ID == "" {
			return nil, fmt.Errorf("roster agent %d: missing id", i)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("roster agent %q: duplicate id", a.ID)
		}
		seen[a.ID] = true
		if len(a.FocusAreas) == 0 {
			return nil, fmt.Errorf("roster agent %q: no focus areas", a.ID)
		}

		spec := review.AgentSpec{
			ID:         a.ID,
			Name:       a.Name,
			FocusAreas: a.FocusAreas,
		}
		if spec.Name == "" {
			spec.Name = a.ID
		}
		if a.Vocabulary != nil {
			spec.Vocabulary = &review.Vocabulary{
				Critical: a.Vocabulary.Critical,
				High:     a.Vocabulary.High,
				Medium:   a.Vocabulary.Medium,
				Low:      a.Vocabulary.Low,
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
