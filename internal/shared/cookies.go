// Utilities for importing browser cookie exports.
package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ParseCookieFile reads a JSON cookie export from disk and returns a
// name -> value mapping. See [ParseCookieJSON] for the accepted shapes.
func ParseCookieFile(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	return ParseCookieJSON(content)
}

// ParseCookieJSON parses a JSON cookie document into a name -> value mapping.
//
// Two shapes are accepted: a plain object {"name": "value", ...} and the
// browser-extension export form [{"name": ..., "value": ...}, ...]. Extra
// fields on the array form (domain, path, expiry) are ignored.
func ParseCookieJSON(data []byte) (map[string]string, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty cookie document", ErrInvalidInput)
	}

	if strings.HasPrefix(trimmed, "[") {
		var entries []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse cookie export: %w", err)
		}

		cookies := make(map[string]string, len(entries))
		for _, entry := range entries {
			if entry.Name == "" {
				continue
			}
			cookies[entry.Name] = entry.Value
		}

		if len(cookies) == 0 {
			return nil, fmt.Errorf("%w: no cookies found in export", ErrInvalidInput)
		}
		return cookies, nil
	}

	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookie mapping: %w", err)
	}

	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: no cookies found in mapping", ErrInvalidInput)
	}

	return cookies, nil
}
