package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"openai", OpenAI, false},
		{" Anthropic ", Anthropic, false},
		{"", OpenAI, false},
		{"ollama", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Cleanup(func() {
		Del(OpenAI, "gpt-4o-mini")
		Del(Anthropic, "claude-resolve-test")
	})

	m, err := Resolve(OpenAI, "", Options{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", m.Name())

	again, err := Resolve(OpenAI, "gpt-4o-mini", Options{})
	require.NoError(t, err)
	assert.Same(t, m, again)

	got, ok := Get(OpenAI, "gpt-4o-mini")
	require.True(t, ok)
	assert.Same(t, m, got)

	c, err := Resolve(Anthropic, "claude-resolve-test", Options{APIKey: "k", BaseURL: "http://localhost:1/"})
	require.NoError(t, err)
	assert.Equal(t, "claude-resolve-test", c.Name())
	assert.NotNil(t, c.Provider())

	_, ok = Get(OpenAI, "claude-resolve-test")
	assert.False(t, ok, "models are keyed by backend")

	_, err = Resolve("ollama", "llama", Options{})
	assert.Error(t, err)
}
