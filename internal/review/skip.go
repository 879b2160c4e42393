package review

import "strings"

// SkipPolicy excludes files from analysis by extension or by filename
// substring. All checks are case-insensitive against the full path.
type SkipPolicy struct {
	Extensions map[string]bool
	Patterns   []string
}

// DefaultSkipPolicy returns the deny-lists for files that never carry
// reviewable logic: lockfiles, docs, config, binary assets, and
// generated/minified artifacts.
func DefaultSkipPolicy() SkipPolicy {
	exts := []string{
		".json", ".lock", ".md", ".txt", ".yml", ".yaml",
		".gitignore", ".env",
		".png", ".jpg", ".gif", ".svg", ".ico", ".pdf",
		".woff", ".woff2", ".ttf", ".eot",
	}
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return SkipPolicy{
		Extensions: m,
		Patterns: []string{
			"package-lock.json",
			"yarn.lock",
			"poetry.lock",
			"pipfile.lock",
			"requirements.txt",
			"node_modules/",
			".min.js",
			".min.css",
		},
	}
}

// Extend returns a copy of the policy with additional denied extensions
// and patterns. Extensions are normalized to a leading dot and lower case.
func (p SkipPolicy) Extend(extensions, patterns []string) SkipPolicy {
	next := SkipPolicy{
		Extensions: make(map[string]bool, len(p.Extensions)+len(extensions)),
		Patterns:   make([]string, 0, len(p.Patterns)+len(patterns)),
	}
	for e := range p.Extensions {
		next.Extensions[e] = true
	}
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		next.Extensions[e] = true
	}
	next.Patterns = append(next.Patterns, p.Patterns...)
	for _, pat := range patterns {
		pat = strings.ToLower(strings.TrimSpace(pat))
		if pat != "" {
			next.Patterns = append(next.Patterns, pat)
		}
	}
	return next
}

// Skip reports whether the file at path is excluded from analysis.
// Extension entries match as suffixes of the path, so compound entries
// such as ".gen.go" apply without sweeping in every ".go" file.
func (p SkipPolicy) Skip(path string) bool {
	lower := strings.ToLower(path)
	for ext := range p.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, pat := range p.Patterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}

// Filter partitions changes into those to analyze and those excluded.
// Files with an empty patch are excluded alongside policy matches since
// there is nothing to send to an agent.
func (p SkipPolicy) Filter(changes []FileChange) (kept, skipped []FileChange) {
	for _, c := range changes {
		if c.Patch == "" || p.Skip(c.Path) {
			skipped = append(skipped, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, skipped
}
