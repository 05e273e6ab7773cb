package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EnvOverrides converts prefixed environment variables into a settings
// map. MODALKEYS_MACRO_KEY_BUDGET=500 becomes macro.key_budget = 500: the
// first word names the section and the rest, joined with underscores,
// the setting.
func EnvOverrides(prefix string, environ []string) map[string]any {
	settings := make(map[string]any)
	for _, env := range environ {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		section, setting, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, prefix)), "_")
		if !ok || section == "" || setting == "" {
			continue
		}
		setByPath(settings, section+"."+setting, parseValue(value))
	}
	return settings
}

// parseValue attempts to parse the string value into an appropriate type.
// Lists are written as JSON arrays.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}
