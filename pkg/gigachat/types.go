package gigachat

import (
	"encoding/json"
)

// Roles used in conversations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name is set on function result messages.
	Name             string        `json:"name,omitempty"`
	FunctionCall     *FunctionCall `json:"function_call,omitempty"`
	FunctionsStateID string        `json:"functions_state_id,omitempty"`
}

// FunctionCall is a function invocation requested by the model.
// Arguments may be a JSON object or a JSON-encoded string.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Function describes a function the model can call.
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CallMode controls function calling. The zero value lets the model decide.
type CallMode struct {
	Name string
}

// Force returns a mode that makes the model call the named function.
func Force(name string) CallMode {
	return CallMode{Name: name}
}

func (m CallMode) MarshalJSON() ([]byte, error) {
	if m.Name == "" {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(struct {
		Name string `json:"name"`
	}{m.Name})
}

func (m *CallMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = CallMode{}
		return nil
	}
	var v struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	m.Name = v.Name
	return nil
}

type Request struct {
	Model        string     `json:"model"`
	Messages     []Message  `json:"messages"`
	Functions    []Function `json:"functions,omitempty"`
	FunctionCall *CallMode  `json:"function_call,omitempty"`
	Temperature  float64    `json:"temperature"`
	MaxTokens    int        `json:"max_tokens,omitempty"`
}

type Response struct {
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type Choice struct {
	Message      Message `json:"message"`
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
