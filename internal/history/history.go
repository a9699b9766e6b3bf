package history

import (
	"fmt"
	"strings"

	"github.com/igolaizola/igochat/pkg/gigachat"
	"github.com/tiktoken-go/tokenizer"
)

// Tokens reserved for the model response.
const responseReserve = 1000

// Trim drops the oldest messages after the first keepFirst ones until the
// conversation fits in maxTokens. The last message is never dropped. A
// non-positive maxTokens disables trimming.
func Trim(messages []gigachat.Message, keepFirst, maxTokens int) ([]gigachat.Message, error) {
	if maxTokens <= 0 {
		return messages, nil
	}

	// Keep first messages
	first := []gigachat.Message{}
	rest := messages
	if keepFirst > 0 && len(messages) > keepFirst {
		first = messages[:keepFirst]
		rest = messages[keepFirst:]
	}

	// Count tokens and remove oldest messages if needed
	for {
		candidate := append(append([]gigachat.Message{}, first...), rest...)
		tokens, err := Tokens(candidate)
		if err != nil {
			return nil, err
		}
		if tokens+responseReserve <= maxTokens {
			return candidate, nil
		}
		if len(rest) <= 1 {
			return nil, fmt.Errorf("history: prompt too long (%d tokens)", tokens)
		}
		rest = rest[1:]
	}
}

// Tokens estimates the number of tokens of the messages, including function
// names and call arguments.
func Tokens(messages []gigachat.Message) (int, error) {
	var sb strings.Builder
	for _, m := range messages {
		if m.Name != "" {
			sb.WriteString(m.Name)
			sb.WriteString("\n")
		}
		if call := m.FunctionCall; call != nil {
			sb.WriteString(call.Name)
			sb.WriteString("\n")
			sb.Write(call.Arguments)
			sb.WriteString("\n")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return 0, fmt.Errorf("history: couldn't get tokenizer: %w", err)
	}
	ids, _, err := enc.Encode(sb.String())
	if err != nil {
		return 0, fmt.Errorf("history: couldn't encode messages: %w", err)
	}

	// Per message overhead
	return len(ids) + len(messages)*8, nil
}
