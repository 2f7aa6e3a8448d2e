package tool

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/IronClad1607/research-agent/pkg/reflectx"
	"github.com/IronClad1607/research-agent/pkg/stdx"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultParameter is the argument name of a tool that did not pick one.
const DefaultParameter = "__arg1"

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ErrMissingArgument is returned by Invoke when the arguments object does not
// carry the tool's parameter.
var ErrMissingArgument = errors.New("missing tool argument")

// Func is the implementation of a tool: text in, text out.
type Func func(ctx context.Context, input string) (string, error)

// Definition describes a tool to the model and holds its implementation.
type Definition struct {
	Name        string
	Description string
	Parameter   string
	Function    Func
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// ToNameAndSchema returns the tool name and the JSON schema of its arguments.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	param := td.parameter()

	propSchema := functionReflector.ReflectFromType(reflect.TypeOf(""))
	propSchema.Version = ""

	schema := &jsonschema.Schema{
		Type:                 "object",
		Properties:           orderedmap.New[string, *jsonschema.Schema](),
		Required:             []string{param},
		AdditionalProperties: jsonschema.FalseSchema,
	}
	schema.Properties.Set(param, propSchema)
	return td.Name, schema
}

func (td Definition) parameter() string {
	if td.Parameter == "" {
		return DefaultParameter
	}
	return td.Parameter
}

// Invoke unpacks arguments and calls the tool function.
//
// A JSON object yields the value of the tool parameter, or its only property
// when the model used a different name. A JSON string yields its contents.
// Anything else is passed through unchanged.
func (td Definition) Invoke(ctx context.Context, arguments string) (string, error) {
	input, err := td.Argument(arguments)
	if err != nil {
		return "", err
	}
	return td.Function(ctx, input)
}

// Argument extracts the tool input from the raw arguments the model sent.
func (td Definition) Argument(arguments string) (string, error) {
	trimmed := strings.TrimSpace(arguments)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return arguments, nil
	}

	parsed := gjson.Parse(trimmed)
	switch {
	case parsed.Type == gjson.String:
		return parsed.Str, nil
	case parsed.IsObject():
	default:
		return arguments, nil
	}

	param := td.parameter()
	var (
		value gjson.Result
		found bool
		count int
		only  gjson.Result
	)
	parsed.ForEach(func(key, v gjson.Result) bool {
		count++
		only = v
		if key.Str == param {
			value, found = v, true
			return false
		}
		return true
	})
	if !found {
		if count != 1 {
			return "", fmt.Errorf("%w %q for tool %q", ErrMissingArgument, param, td.Name)
		}
		value = only
	}
	if value.Type == gjson.String {
		return value.Str, nil
	}
	return value.Raw, nil
}

// Option configures a Definition.
type Option = opts.Option[Definition]

// Must is New that panics on error.
func Must(f Func, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New builds a Definition for f. The name defaults to the declared name of f;
// anonymous functions need the Name option.
func New(f Func, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, errors.New("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}
	if !validName.MatchString(def.Name) {
		return Definition{}, fmt.Errorf("invalid tool name %q: want 1-64 letters, digits, '_' or '-'", def.Name)
	}
	if def.Parameter == "" {
		def.Parameter = DefaultParameter
	}

	def.Function = f
	return def, nil
}

var (
	Name        = opts.ForName[Definition, string]("Name")
	Description = opts.ForName[Definition, string]("Description")
	// Parameter names the single string property of the arguments schema.
	Parameter = opts.ForName[Definition, string]("Parameter")
)
