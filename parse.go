package research

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ErrParse matches every *ParseError with errors.Is.
var ErrParse = errors.New("failed to parse research response")

// ParseError reports a model reply that is not a valid Response.
type ParseError struct {
	// Raw is the reply exactly as the model sent it.
	Raw string
	// Missing names the required fields that were absent or null.
	Missing []string
	// Invalid describes fields present with the wrong type.
	Invalid []string
	Cause   error
}

func (e *ParseError) Error() string {
	return ErrParse.Error() + ": " + e.Cause.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

type fieldKind int

const (
	stringField fieldKind = iota
	stringArrayField
)

var requiredFields = []struct {
	name string
	kind fieldKind
}{
	{"topic", stringField},
	{"summary", stringField},
	{"sources", stringArrayField},
	{"tools_used", stringArrayField},
}

// Parse decodes a model reply into a Response.
//
// The reply must be a JSON object, either bare or inside a markdown code fence
// found anywhere in the reply, with string fields topic and summary and string array fields sources
// and tools_used. Empty arrays are accepted and extra fields are ignored.
// Every missing or mistyped field is reported, not only the first.
func Parse(raw string) (Response, error) {
	payload := extractFenced(strings.TrimSpace(raw))

	fail := func(pe *ParseError) (Response, error) {
		pe.Raw = raw
		return Response{}, pe
	}

	if payload == "" {
		return fail(&ParseError{Cause: errors.New("empty response")})
	}
	if !gjson.Valid(payload) {
		return fail(&ParseError{Cause: errors.New("response is not valid JSON")})
	}

	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return fail(&ParseError{Cause: fmt.Errorf("expected a JSON object, got %s", kindOf(doc))})
	}

	var missing, invalid []string
	for _, f := range requiredFields {
		v := doc.Get(f.name)
		if !v.Exists() || v.Type == gjson.Null {
			missing = append(missing, f.name)
			continue
		}
		if msg := checkType(f.name, f.kind, v); msg != "" {
			invalid = append(invalid, msg)
		}
	}
	if len(missing) > 0 || len(invalid) > 0 {
		var causes []string
		if len(missing) > 0 {
			causes = append(causes, "missing required fields: "+strings.Join(missing, ", "))
		}
		causes = append(causes, invalid...)
		return fail(&ParseError{
			Missing: missing,
			Invalid: invalid,
			Cause:   errors.New(strings.Join(causes, "; ")),
		})
	}

	var resp Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return fail(&ParseError{Cause: err})
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	if resp.ToolsUsed == nil {
		resp.ToolsUsed = []string{}
	}
	return resp, nil
}

func checkType(name string, kind fieldKind, v gjson.Result) string {
	switch kind {
	case stringField:
		if v.Type != gjson.String {
			return fmt.Sprintf("%s: expected a string, got %s", name, kindOf(v))
		}
	case stringArrayField:
		if !v.IsArray() {
			return fmt.Sprintf("%s: expected an array of strings, got %s", name, kindOf(v))
		}
		for i, el := range v.Array() {
			if el.Type != gjson.String {
				return fmt.Sprintf("%s[%d]: expected a string, got %s", name, i, kindOf(el))
			}
		}
	}
	return ""
}

func kindOf(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	case v.Type == gjson.String:
		return "string"
	case v.Type == gjson.Number:
		return "number"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "boolean"
	default:
		return "null"
	}
}

// extractFenced returns the body of the markdown code fence in s. The fence
// may follow or precede prose and may sit on a single line. s is returned as
// is when it already is valid JSON or holds no fence.
func extractFenced(s string) string {
	if gjson.Valid(s) {
		return s
	}
	start := strings.Index(s, "```")
	end := strings.LastIndex(s, "```")
	if start < 0 || end <= start {
		return s
	}
	inner := s[start+3 : end]
	// the info string runs to the first newline or to the opening bracket
	if i := strings.IndexAny(inner, "{[\n"); i >= 0 && !strings.Contains(inner[:i], `"`) {
		inner = inner[i:]
	}
	return strings.TrimSpace(inner)
}
