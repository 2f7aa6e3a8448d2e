// Package models resolves a configured backend and model name to an api.Model.
package models

import (
	"fmt"
	"strings"

	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/internal/registry"
	"github.com/IronClad1607/research-agent/provider/anthropic"
	"github.com/IronClad1607/research-agent/provider/openai"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/option"
)

type Backend string

const (
	OpenAI    Backend = "openai"
	Anthropic Backend = "anthropic"
)

// ParseBackend accepts a backend name in any case.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case OpenAI, Anthropic:
		return b, nil
	case "":
		return OpenAI, nil
	default:
		return "", fmt.Errorf("unknown backend %q: want %q or %q", s, OpenAI, Anthropic)
	}
}

// DefaultModel returns the model used for b when none is configured.
func (b Backend) DefaultModel() string {
	if b == Anthropic {
		return anthropic.DefaultModel
	}
	return openai.DefaultModel
}

// Options are the connection settings of a backend.
type Options struct {
	APIKey  string
	BaseURL string
}

var Global = registry.New[api.Model]()

func key(backend Backend, name string) string {
	return string(backend) + "/" + name
}

func Add(backend Backend, model api.Model) {
	Global.Add(key(backend, model.Name()), model)
}

func Get(backend Backend, name string) (api.Model, bool) {
	return Global.Get(key(backend, name))
}

func Del(backend Backend, name string) {
	Global.Del(key(backend, name))
}

// Resolve returns the model registered for backend and name, creating it from
// opts when it is not registered yet. An empty name selects the backend default.
func Resolve(backend Backend, name string, opts Options) (api.Model, error) {
	if name == "" {
		name = backend.DefaultModel()
	}

	var create func() api.Model
	switch backend {
	case OpenAI:
		create = func() api.Model {
			var ro []openaiopt.RequestOption
			if opts.APIKey != "" {
				ro = append(ro, openaiopt.WithAPIKey(opts.APIKey))
			}
			if opts.BaseURL != "" {
				ro = append(ro, openaiopt.WithBaseURL(opts.BaseURL))
			}
			return openai.NewModel(name, ro...)
		}
	case Anthropic:
		create = func() api.Model {
			var ro []anthropicopt.RequestOption
			if opts.APIKey != "" {
				ro = append(ro, anthropicopt.WithAPIKey(opts.APIKey))
			}
			if opts.BaseURL != "" {
				ro = append(ro, anthropicopt.WithBaseURL(opts.BaseURL))
			}
			return anthropic.NewModel(name, ro...)
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	m, _ := Global.GetOrAdd(key(backend, name), create)
	return m, nil
}
