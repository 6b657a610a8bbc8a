package service

import (
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractVariables returns the name of every {{name}} placeholder in content
// in scan order. Repeated placeholders appear once per occurrence.
func ExtractVariables(content string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// UniqueVariables drops repeated names, keeping the first appearance.
func UniqueVariables(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// RenderContent replaces each {{name}} placeholder that has an entry in
// values. Placeholders without a value are kept verbatim. Substitution is a
// single pass, so placeholders inside substituted values are not expanded.
func RenderContent(content string, values map[string]string) string {
	if len(values) == 0 {
		return content
	}
	return placeholderPattern.ReplaceAllStringFunc(content, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := values[name]; ok {
			return v
		}
		return token
	})
}
