package review

import (
	"fmt"
	"sort"
	"strings"
)

// builtinAgents is the shipped roster. Custom agents from a roster file
// are merged on top by the config layer; an id collision overrides the
// builtin.
var builtinAgents = []AgentSpec{
	{
		ID:   "logic",
		Name: "Logic & Correctness",
		FocusAreas: []string{
			"Algorithmic correctness",
			"Edge case handling",
			"Null/undefined checks",
			"Loop invariants",
			"Conditional logic",
			"Error handling",
			"Race conditions",
			"Data consistency",
		},
	},
	{
		ID:   "security",
		Name: "Security",
		FocusAreas: []string{
			"SQL injection vulnerabilities",
			"XSS (Cross-Site Scripting)",
			"Authentication/Authorization",
			"Input validation",
			"Data sanitization",
			"Sensitive data exposure",
			"Cryptography usage",
			"Dependency vulnerabilities",
			"CSRF protection",
			"API security",
		},
	},
	{
		ID:   "performance",
		Name: "Performance",
		FocusAreas: []string{
			"Time complexity (O-notation)",
			"Space complexity",
			"Database query optimization",
			"N+1 query problems",
			"Caching opportunities",
			"Memory leaks",
			"Unnecessary computations",
			"API call efficiency",
			"Resource management",
			"Algorithmic improvements",
		},
	},
	{
		ID:   "readability",
		Name: "Readability & Maintainability",
		FocusAreas: []string{
			"Code clarity",
			"Naming conventions",
			"Function/method length",
			"Code duplication",
			"Comments and documentation",
			"Design patterns",
			"SOLID principles",
			"Code organization",
			"Type safety",
		},
	},
	{
		ID:   "tests",
		Name: "Test Coverage",
		FocusAreas: []string{
			"Missing unit tests",
			"Untested edge cases",
			"Error path coverage",
			"Boundary value tests",
			"Negative test cases",
			"Flaky test patterns",
			"Untested async/concurrent scenarios",
		},
	},
}

// DefaultAgentIDs returns the agents a review runs when none are named.
// The tests agent is opt-in.
func DefaultAgentIDs() []string {
	return []string{"logic", "security", "performance", "readability"}
}

// BuiltinAgents returns a copy of the shipped roster.
func BuiltinAgents() []AgentSpec {
	out := make([]AgentSpec, len(builtinAgents))
	copy(out, builtinAgents)
	return out
}

// DefaultAgents returns the specs behind [DefaultAgentIDs].
func DefaultAgents() []AgentSpec {
	out := make([]AgentSpec, 0, len(DefaultAgentIDs()))
	for _, id := range DefaultAgentIDs() {
		for _, a := range builtinAgents {
			if a.ID == id {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// SelectAgents resolves agent ids against the builtin roster merged with
// extra specs (roster-file agents; same-id extras override builtins).
// An unknown id is an error naming the known ids.
func SelectAgents(ids []string, extra []AgentSpec) ([]AgentSpec, error) {
	byID := make(map[string]AgentSpec, len(builtinAgents)+len(extra))
	for _, a := range builtinAgents {
		byID[a.ID] = a
	}
	for _, a := range extra {
		byID[a.ID] = a
	}

	if len(ids) == 0 {
		ids = DefaultAgentIDs()
	}

	selected := make([]AgentSpec, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(strings.ToLower(id))
		if id == "" {
			continue
		}
		spec, ok := byID[id]
		if !ok {
			known := make([]string, 0, len(byID))
			for k := range byID {
				known = append(known, k)
			}
			sort.Strings(known)
			return nil, fmt.Errorf("unknown agent %q (known agents: %s)", id, strings.Join(known, ", "))
		}
		selected = append(selected, spec)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no agents selected")
	}
	return selected, nil
}
