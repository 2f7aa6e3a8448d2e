// Package types holds small value types shared by the agent and prompt packages.
package types

import (
	"maps"

	"github.com/goccy/go-json"
)

// ContextVars are the variables substituted into an instruction template, for
// example
//
//	vars := ContextVars{"format_instructions": research.FormatInstructions()}
//
// and then referenced as {{.format_instructions}}.
//
// ContextVars is a plain map and is not safe for concurrent modification.
type ContextVars map[string]any

// String returns the JSON form of the variables, or "" when they cannot be
// marshalled.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

// Merge returns a new set of variables holding cv overlaid with other.
// Keys in other win.
func (cv ContextVars) Merge(other ContextVars) ContextVars {
	out := make(ContextVars, len(cv)+len(other))
	maps.Copy(out, cv)
	maps.Copy(out, other)
	return out
}
