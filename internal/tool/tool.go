package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/igolaizola/igochat/pkg/gigachat"
)

// Tool is a capability the model can invoke with a single string argument.
type Tool interface {
	Name() string
	// Argument is the name of the parameter holding the tool input.
	Argument() string
	Function() gigachat.Function
	Run(ctx context.Context, value string) (string, error)
}

// Registry holds the available tools.
type Registry struct {
	tools map[string]Tool
	order []Tool
}

// NewRegistry returns a registry with the given tools.
func NewRegistry(tools ...Tool) *Registry {
	lookup := map[string]Tool{}
	for _, t := range tools {
		lookup[fixName(t.Name())] = t
	}
	return &Registry{
		tools: lookup,
		order: tools,
	}
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[fixName(name)]
	return t, ok
}

// Functions returns the function descriptions sent to the model.
func (r *Registry) Functions() []gigachat.Function {
	var fns []gigachat.Function
	for _, t := range r.order {
		fns = append(fns, t.Function())
	}
	return fns
}

func fixName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

var objectRegexp = regexp.MustCompile(`(?s)\{.*?\}`)

// ParseArguments decodes function call arguments, which may be a JSON
// object or a JSON string holding an object. Other valid JSON values yield no
// arguments. Malformed JSON is searched for an embedded object before giving
// up. On failure the raw text is returned
// along with the error so callers can derive a fallback value.
func ParseArguments(raw json.RawMessage) (map[string]any, string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return map[string]any{}, "", nil
	}

	// Unwrap JSON-encoded strings
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			text = strings.TrimSpace(s)
		}
	}

	args := map[string]any{}
	err := json.Unmarshal([]byte(text), &args)
	if err == nil {
		return args, text, nil
	}

	// Valid JSON that isn't an object carries no named arguments
	if json.Valid([]byte(text)) {
		return map[string]any{}, text, nil
	}
	err = fmt.Errorf("couldn't unmarshal arguments (%s): %w", text, err)

	// Try to find a single object
	for _, m := range objectRegexp.FindAllString(text, -1) {
		obj := map[string]any{}
		if json.Unmarshal([]byte(m), &obj) == nil {
			return obj, text, nil
		}
	}
	return nil, text, err
}

// StringArg returns the named argument as a trimmed string.
func StringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
