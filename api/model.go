// Package api declares the interfaces shared by agents, models and the agent loop.
package api

import "github.com/IronClad1607/research-agent/provider"

// Model is a named model served by a backend.
type Model interface {
	Name() string
	Provider() provider.Provider
}
