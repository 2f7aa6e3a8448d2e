package console

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	research "github.com/IronClad1607/research-agent"
	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/executor"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleResult() research.Result {
	return research.Result{
		Response: research.Response{
			Topic:     "Penguins",
			Summary:   "Penguins are flightless seabirds.",
			Sources:   []string{"https://en.wikipedia.org/wiki/Penguin"},
			ToolsUsed: []string{"wikipedia"},
		},
		Observed: []executor.ToolInvocation{
			{CallID: "1", Name: "wikipedia"},
			{CallID: "2", Name: "search"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", Pretty, false},
		{"pretty", Pretty, false},
		{" JSON ", JSON, false},
		{"pp", PP, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPrinter_UnknownFormat(t *testing.T) {
	_, err := NewPrinter(&bytes.Buffer{}, Format("xml"))
	require.Error(t, err)
}

func TestPrinter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, Pretty)
	require.NoError(t, err)

	require.NoError(t, p.Result(sampleResult()))
	out := buf.String()
	assert.Contains(t, out, "Topic: Penguins")
	assert.Contains(t, out, "flightless seabirds")
	assert.Contains(t, out, "  - https://en.wikipedia.org/wiki/Penguin")
	assert.Contains(t, out, "Tools used: wikipedia")
	assert.Contains(t, out, "Also ran: search")
}

func TestPrinter_PrettyNoSources(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, Pretty)
	require.NoError(t, err)

	require.NoError(t, p.Result(research.Result{Response: research.Response{Topic: "Empty"}}))
	assert.Contains(t, buf.String(), "(none)")
	assert.NotContains(t, buf.String(), "Also ran")
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, JSON)
	require.NoError(t, err)

	res := sampleResult()
	require.NoError(t, p.Result(res))

	var got research.Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, res.Response, got)
}

func TestPrinter_PP(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, PP)
	require.NoError(t, err)

	require.NoError(t, p.Result(sampleResult()))
	assert.Contains(t, buf.String(), "Topic:")
	assert.Contains(t, buf.String(), `"Penguins"`)
}

func TestPrinter_ParseFailure(t *testing.T) {
	_, perr := research.Parse(`{"topic": "x"}`)
	require.Error(t, perr)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse error", perr, "Error parsing response: missing required fields: summary, sources, tools_used\n"},
		{"other error", errors.New("boom"), "Error parsing response: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p, err := NewPrinter(&buf, JSON)
			require.NoError(t, err)

			require.NoError(t, p.ParseFailure(`{"topic": "x"}`, tt.err))
			assert.Equal(t, tt.want+`Raw response: {"topic": "x"}`+"\n", buf.String())
		})
	}
}

func TestTrace(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	hook := Trace(&buf)
	b := messages.New()

	hook.OnUserPrompt(ctx, b.UserPrompt("tell me about penguins"))
	hook.OnToolCallMessage(ctx, b.ToolCall(messages.ToolCallData{ID: "1", Name: "search", Arguments: `{"query":"penguins"}`}))
	hook.OnToolCallResponse(ctx, b.ToolResponse("1", "search", "Penguin: a bird"))
	hook.OnToolCallResponse(ctx, b.ToolError("2", "nope", "nope is not a valid tool"))
	hook.OnError(ctx, events.Error{Err: &executor.ToolInvocationError{CallID: "2", Name: "nope", Err: executor.ErrUnknownTool}})
	hook.OnError(ctx, events.Error{Err: errors.New("provider down")})
	hook.OnAssistantMessage(ctx, b.AssistantMessage(`{"topic":"Penguins"}`))

	out := buf.String()
	assert.Contains(t, out, "Query: tell me about penguins")
	assert.Contains(t, out, "Invoking: `search` with `{\"query\":\"penguins\"}`")
	assert.Contains(t, out, "Penguin: a bird")
	assert.Contains(t, out, "nope is not a valid tool")
	assert.Contains(t, out, "Error: provider down")
	assert.NotContains(t, out, "unknown tool")
	assert.Contains(t, out, `{"topic":"Penguins"}`)
	assert.Contains(t, out, "> Finished run.")
}

func TestTrace_Streaming(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	hook := Trace(&buf)
	b := messages.New()

	hook.OnAssistantChunk(ctx, b.AssistantMessage(`{"topic":`))
	hook.OnAssistantChunk(ctx, b.AssistantMessage(`"Penguins"}`))
	hook.OnAssistantMessage(ctx, b.AssistantMessage(`{"topic":"Penguins"}`))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`{"topic":"Penguins"}`)))
}
