package anthropic

import (
	"sync"

	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/provider"
	"github.com/alphadose/haxmap"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-3-5-haiku-latest"

var modelRegistry = haxmap.New[string, api.Model]()

// Model returns the cached model called name, creating it with opts on first use.
func Model(name string, opts ...option.RequestOption) api.Model {
	m, _ := modelRegistry.GetOrCompute(name, func() api.Model {
		return NewModel(name, opts...)
	})
	return m
}

// NewModel returns an uncached model.
func NewModel(name string, opts ...option.RequestOption) api.Model {
	return &model{
		name: name,
		opts: opts,
	}
}

var _ api.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     provider.Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Provider() provider.Provider {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}
