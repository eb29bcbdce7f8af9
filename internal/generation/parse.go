package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrMalformedResponse means the model reply could not be turned into the
// expected structure. It never reaches API callers: the demo generator takes over.
var ErrMalformedResponse = errors.New("malformed model response")

// ExtractJSON returns the first JSON object embedded in text. The span starts
// at the first '{' and ends at its matching '}'; markdown fences and prose
// around it are ignored. When braces do not balance, the span runs to the last '}'.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}
	if end := matchingBrace(text, start); end != -1 {
		return text[start : end+1], nil
	}
	end := strings.LastIndex(text, "}")
	if end <= start {
		return "", fmt.Errorf("%w: unterminated JSON object", ErrMalformedResponse)
	}
	return text[start : end+1], nil
}

// matchingBrace returns the index of the '}' closing the '{' at start,
// skipping braces inside JSON strings, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Schema is a compiled JSON Schema used to vet model payloads before decoding.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// MustCompileSchema compiles a JSON Schema document. It panics on an invalid
// document, so it is meant for package-level variables.
func MustCompileSchema(name, doc string) *Schema {
	var parsed any
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, parsed); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{name: name, compiled: compiled}
}

// DecodeJSON extracts the JSON object from a model reply, validates it against
// schema and decodes it into dst. Every failure wraps ErrMalformedResponse.
func DecodeJSON(text string, schema *Schema, dst any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}

	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if schema != nil {
		if err := schema.compiled.Validate(generic); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, schema.name, err)
		}
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
