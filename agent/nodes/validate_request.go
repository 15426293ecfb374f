package orchestratornode

import (
	"strings"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if len(in.Messages) == 0 {
		return nil, contractx.InvalidRequest(ErrMessagesRequired, "%s", ErrMessagesRequired)
	}
	for i, m := range in.Messages {
		if m.Role != contractx.RoleUser && m.Role != contractx.RoleAssistant {
			return nil, contractx.InvalidRequest(nil, "messages[%d] has unsupported role %q", i, m.Role)
		}
	}

	last := in.Messages[len(in.Messages)-1]
	if last.Role != contractx.RoleUser {
		return nil, contractx.InvalidRequest(nil, "the last message must come from the user")
	}
	input := strings.TrimSpace(last.Content)
	if input == "" {
		return nil, contractx.InvalidRequest(nil, "the last message is empty")
	}

	agentType, ok := contractx.ParseAgentType(in.AgentType)
	if !ok {
		return nil, contractx.InvalidRequest(ErrUnknownAgentType, "%s %q", ErrUnknownAgentType, in.AgentType)
	}

	return &GraphState{
		Req:        in,
		Now:        nowFn().UTC(),
		Input:      input,
		Transcript: Transcript(in.Messages[:len(in.Messages)-1], input),
		AgentType:  agentType,
	}, nil
}

// Transcript folds prior turns and the newest user message into a single
// prompt, keeping order and speaker.
func Transcript(history []contractx.ChatMessage, input string) string {
	if len(history) == 0 {
		return input
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		speaker := "User"
		if m.Role == contractx.RoleAssistant {
			speaker = "Assistant"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	b.WriteString("\n\nUser: ")
	b.WriteString(input)
	return b.String()
}
