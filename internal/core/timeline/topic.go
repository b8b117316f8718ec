package timeline

import "strings"

// ResolveTopicName maps an internal schema name like
// "copilots_header_21961.topic.GenAIAnsGeneration" to its human display
// name. Falls back to the last dot-separated segment, then to the schema
// name itself. Total: never fails, empty in gives empty out.
func ResolveTopicName(schemaName string, lookup map[string]string) string {
	if display, ok := lookup[schemaName]; ok {
		return display
	}

	parts := strings.Split(schemaName, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-1]
	}
	return schemaName
}

// shortName trims a dotted identifier to its last segment.
func shortName(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}
