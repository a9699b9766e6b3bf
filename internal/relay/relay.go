package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/igolaizola/igochat/internal/dispatch"
	"github.com/igolaizola/igochat/internal/history"
	"github.com/igolaizola/igochat/internal/tool"
	"github.com/igolaizola/igochat/pkg/gigachat"
)

// Chatter is the conversational provider.
type Chatter interface {
	Token(ctx context.Context) (string, error)
	Complete(ctx context.Context, token string, req *gigachat.Request) (*gigachat.Message, error)
}

// Result is the answer returned to the chat client.
type Result struct {
	Response        string `json:"response"`
	SearchPerformed bool   `json:"searchPerformed"`
	SearchQuery     string `json:"searchQuery,omitempty"`
	ToolUsed        string `json:"toolUsed,omitempty"`
	Fallback        bool   `json:"fallback,omitempty"`
	Error           string `json:"error,omitempty"`
}

type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// HistoryTokens limits the prompt size by dropping the oldest history
	// turns. Zero sends the history as received.
	HistoryTokens int
}

// Relay answers user messages using the provider and the registered tools.
type Relay struct {
	chat          Chatter
	tools         *tool.Registry
	model         string
	temperature   float64
	maxTokens     int
	historyTokens int
}

// New returns a new Relay.
func New(chat Chatter, tools *tool.Registry, cfg *Config) *Relay {
	model := cfg.Model
	if model == "" {
		model = gigachat.DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	return &Relay{
		chat:          chat,
		tools:         tools,
		model:         model,
		temperature:   cfg.Temperature,
		maxTokens:     maxTokens,
		historyTokens: cfg.HistoryTokens,
	}
}

// Send answers the message in the context of the given history.
func (r *Relay) Send(ctx context.Context, message string, hist []gigachat.Message) (*Result, error) {
	token, err := r.chat.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("relay: couldn't get token: %w", err)
	}

	messages := make([]gigachat.Message, 0, len(hist)+2)
	messages = append(messages, gigachat.Message{Role: gigachat.RoleSystem, Content: systemPrompt})
	messages = append(messages, hist...)
	messages = append(messages, gigachat.Message{Role: gigachat.RoleUser, Content: message})
	messages, err = history.Trim(messages, 1, r.historyTokens)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}

	decision := dispatch.Decide(message)
	mode := gigachat.CallMode{}
	if decision.Forced() {
		log.Printf("relay: forcing %s for %q", decision.Tool, decision.Target)
		mode = gigachat.Force(decision.Tool)
	}

	assistant, err := r.chat.Complete(ctx, token, &gigachat.Request{
		Model:        r.model,
		Messages:     messages,
		Functions:    r.tools.Functions(),
		FunctionCall: &mode,
		Temperature:  r.temperature,
		MaxTokens:    r.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("relay: couldn't get completion: %w", err)
	}

	if assistant.FunctionCall != nil {
		return r.functionCall(ctx, token, message, messages, assistant)
	}
	if decision.Forced() {
		return r.fallback(ctx, token, decision, messages)
	}
	return &Result{Response: assistant.Content}, nil
}

// functionCall runs the tool requested by the model and sends its output
// back as a function message.
func (r *Relay) functionCall(ctx context.Context, token, message string, messages []gigachat.Message, assistant *gigachat.Message) (*Result, error) {
	call := assistant.FunctionCall
	log.Printf("relay: model called %s with %s", call.Name, string(call.Arguments))

	var output string
	var result Result
	t, ok := r.tools.Get(call.Name)
	if !ok {
		err := fmt.Errorf("unknown function %s", call.Name)
		output = fmt.Sprintf("Ошибка при выполнении функции %s: %v", call.Name, err)
		result = Result{Error: err.Error(), ToolUsed: call.Name}
	} else {
		value := r.argument(t, message, call.Arguments)
		result = Result{SearchPerformed: true, SearchQuery: value, ToolUsed: t.Name()}
		if value == "" && t.Name() == dispatch.FetchWebPage {
			output = "Ошибка: URL не найден в аргументах функции"
		} else {
			var err error
			output, err = t.Run(ctx, value)
			if err != nil {
				log.Println(fmt.Errorf("relay: %s failed: %w", t.Name(), err))
				output = fmt.Sprintf("Ошибка при выполнении функции %s: %v", call.Name, err)
				result = Result{Error: err.Error(), ToolUsed: call.Name}
			}
		}
	}

	content, err := json.Marshal(map[string]string{"result": output})
	if err != nil {
		return nil, fmt.Errorf("relay: couldn't marshal function result: %w", err)
	}
	followUp := make([]gigachat.Message, 0, len(messages)+2)
	followUp = append(followUp, messages...)
	followUp = append(followUp, *assistant, gigachat.Message{
		Role:    gigachat.RoleFunction,
		Name:    call.Name,
		Content: string(content),
	})

	final, err := r.chat.Complete(ctx, token, &gigachat.Request{
		Model:       r.model,
		Messages:    followUp,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("relay: couldn't get final completion: %w", err)
	}
	result.Response = final.Content
	return &result, nil
}

// argument derives the tool input from the call arguments, falling back to
// values found in the user message.
func (r *Relay) argument(t tool.Tool, message string, raw json.RawMessage) string {
	args, text, err := tool.ParseArguments(raw)
	var value string
	if err != nil {
		log.Println(fmt.Errorf("relay: %w", err))
		value = text
		if t.Name() == dispatch.FetchWebPage {
			if u := dispatch.FindURL(message); u != "" {
				value = u
			}
		}
	} else {
		value = tool.StringArg(args, t.Argument())
	}
	if value != "" {
		return value
	}

	switch t.Name() {
	case dispatch.SearchInternet:
		return message
	case dispatch.FetchWebPage:
		if u := dispatch.FindURL(message); u != "" {
			return u
		}
		return dispatch.FindDomain(message)
	}
	return ""
}

// fallback runs the tool implied by the message when the model ignored the
// hint, and sends its output as a plain user turn.
func (r *Relay) fallback(ctx context.Context, token string, decision dispatch.Decision, messages []gigachat.Message) (*Result, error) {
	log.Printf("relay: model skipped %s, calling it directly", decision.Tool)

	result := Result{Fallback: true}
	var output string
	t, ok := r.tools.Get(decision.Tool)
	if !ok {
		err := fmt.Errorf("unknown function %s", decision.Tool)
		output = fmt.Sprintf("Ошибка при выполнении поиска: %v", err)
		result.Error = err.Error()
	} else {
		var err error
		output, err = t.Run(ctx, decision.Target)
		if err != nil {
			log.Println(fmt.Errorf("relay: fallback %s failed: %w", t.Name(), err))
			output = fmt.Sprintf("Ошибка при выполнении поиска: %v", err)
			result.Error = err.Error()
		} else {
			result.SearchPerformed = true
			result.SearchQuery = decision.Target
			result.ToolUsed = t.Name()
		}
	}

	followUp := make([]gigachat.Message, 0, len(messages)+1)
	followUp = append(followUp, messages...)
	followUp = append(followUp, gigachat.Message{
		Role:    gigachat.RoleUser,
		Content: fmt.Sprintf(fallbackPrompt, output),
	})

	final, err := r.chat.Complete(ctx, token, &gigachat.Request{
		Model:       r.model,
		Messages:    followUp,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("relay: couldn't get fallback completion: %w", err)
	}
	result.Response = final.Content
	return &result, nil
}
