package jsonx

import json "github.com/goccy/go-json"

// ToDynamicJSON round-trips val through JSON into a map.
// SDK request types want tool and response schemas as plain maps rather than
// the typed schema values the jsonschema reflector produces.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}
