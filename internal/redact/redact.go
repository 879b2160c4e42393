package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// rule pairs a secret-shaped pattern with its replacement. Assignment
// rules keep the variable name and separator visible so an agent can
// still reason about what the line does.
type rule struct {
	re      *regexp.Regexp
	replace string
}

func tokenRule(expr string) rule {
	return rule{re: regexp.MustCompile(expr), replace: placeholder}
}

func assignRule(expr string) rule {
	return rule{re: regexp.MustCompile(expr), replace: "${1}${2}" + placeholder}
}

// rules are applied in order. Vendor-prefixed keys come before the bare
// sk- pattern so the more specific shape wins.
var rules = []rule{
	// Fixed-shape tokens.
	tokenRule(`AKIA[0-9A-Z]{16}`),
	tokenRule(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	tokenRule(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	tokenRule(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	tokenRule(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	tokenRule(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	tokenRule(`sk-or-[A-Za-z0-9_-]{20,}`),
	tokenRule(`sk-ant-[A-Za-z0-9_-]{20,}`),
	tokenRule(`sk-[A-Za-z0-9]{20,}`),

	// Assignments: "name = value" with a secret-looking value.
	assignRule(`(?i)(api[_-]?key|apikey|api[_-]?secret)(\s*[:=]\s*)["']?[A-Za-z0-9/+=_-]{20,}["']?`),
	assignRule(`(?i)(aws[_-]?secret[_-]?access[_-]?key)(\s*[:=]\s*)["']?[A-Za-z0-9/+=]{40}["']?`),
	assignRule(`(?i)(secret|token|password|passwd|credential)(\s*[:=]\s*)["'][^"']{8,}["']`),
	assignRule(`(?i)(key|secret|token)(\s*[:=]\s*)["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces secret-shaped substrings in text with [REDACTED].
// Assignment-style matches keep the left-hand side so the redacted line
// stays readable.
func Secrets(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.replace)
	}
	return text
}

// ShouldRedactPath reports whether path matches any redaction pattern.
// A "**/"-prefixed pattern also matches against the bare filename, so
// "**/.env" catches ".env" at the repository root.
func ShouldRedactPath(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		trimmed, found := strings.CutPrefix(pattern, "**/")
		if !found {
			continue
		}
		if ok, err := filepath.Match(trimmed, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Patch redacts a file's diff patch before it is embedded in an agent
// prompt. A path-policy match replaces the whole patch; everything else
// gets the secret scan.
func Patch(patch, path string, patterns []string) string {
	if ShouldRedactPath(path, patterns) {
		return placeholder + " (patch redacted by path policy)\n"
	}
	return Secrets(patch)
}
