package research

import (
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// Response is the structured answer to a research query.
type Response struct {
	Topic     string   `json:"topic" jsonschema:"title=Topic"`
	Summary   string   `json:"summary" jsonschema:"title=Summary"`
	Sources   []string `json:"sources" jsonschema:"title=Sources"`
	ToolsUsed []string `json:"tools_used" jsonschema:"title=Tools Used"`
}

// String renders the response for a terminal.
func (r Response) String() string {
	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(r.Topic)
	b.WriteString("\nSummary: ")
	b.WriteString(r.Summary)
	b.WriteString("\nSources: ")
	b.WriteString(strings.Join(r.Sources, ", "))
	b.WriteString("\nTools used: ")
	b.WriteString(strings.Join(r.ToolsUsed, ", "))
	return b.String()
}

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

var schema = sync.OnceValue(func() *jsonschema.Schema {
	s := reflector.Reflect(&Response{})
	s.Version = ""
	return s
})

// Schema returns the JSON schema of Response. Every field is required and no
// other properties are allowed.
func Schema() *jsonschema.Schema {
	return schema()
}

const formatPreamble = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```json\n"

var formatInstructions = sync.OnceValue(func() string {
	b, err := json.Marshal(Schema())
	if err != nil {
		panic(err)
	}
	return formatPreamble + string(b) + "\n```"
})

// FormatInstructions describes the expected answer format to the model. It is
// substituted for format_instructions in the system instruction.
func FormatInstructions() string {
	return formatInstructions()
}
