// Package assistant runs the conversational booking assistant: a loop that
// alternates reasoning calls with action execution until the reasoning
// service answers without requesting further actions.
package assistant

import "github.com/Shivanand-hulikatti/workspace-booking/internal/actions"

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem       Role = "system"
	RoleUser         Role = "user"
	RoleAssistant    Role = "assistant"
	RoleActionResult Role = "action_result"
)

// Turn is one immutable conversation entry.
//
// Assistant turns may carry Calls; action-result turns carry the CallID and
// Action they answer.
type Turn struct {
	Role   Role           `json:"role"`
	Text   string         `json:"content"`
	Calls  []actions.Call `json:"calls,omitempty"`
	CallID string         `json:"call_id,omitempty"`
	Action string         `json:"action,omitempty"`
}

func SystemTurn(text string) Turn    { return Turn{Role: RoleSystem, Text: text} }
func UserTurn(text string) Turn      { return Turn{Role: RoleUser, Text: text} }
func AssistantTurn(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }

// ActionResultTurn records the output of call.
func ActionResultTurn(call actions.Call, output string) Turn {
	return Turn{Role: RoleActionResult, Text: output, CallID: call.ID, Action: call.Name}
}

// Conversation is an append-only sequence of turns. Values never share
// backing storage, so a Conversation can be passed around freely.
type Conversation struct {
	turns []Turn
}

// NewConversation returns a conversation holding turns.
func NewConversation(turns ...Turn) Conversation {
	return Conversation{turns: clone(turns)}
}

// Append returns a new conversation with turns added at the end.
func (c Conversation) Append(turns ...Turn) Conversation {
	out := make([]Turn, 0, len(c.turns)+len(turns))
	out = append(out, c.turns...)
	out = append(out, turns...)
	return Conversation{turns: out}
}

// Turns returns a copy of every turn.
func (c Conversation) Turns() []Turn { return clone(c.turns) }

// Len returns the number of turns.
func (c Conversation) Len() int { return len(c.turns) }

// WithoutSystem returns the turns a caller may carry into the next request.
func (c Conversation) WithoutSystem() []Turn {
	out := make([]Turn, 0, len(c.turns))
	for _, t := range c.turns {
		if t.Role != RoleSystem {
			out = append(out, t)
		}
	}
	return out
}

// LastAnswer returns the text of the most recent assistant turn with
// non-empty text given after the latest user turn.
func (c Conversation) LastAnswer() (string, bool) {
	for i := len(c.turns) - 1; i >= 0; i-- {
		t := c.turns[i]
		if t.Role == RoleUser {
			break
		}
		if t.Role == RoleAssistant && t.Text != "" {
			return t.Text, true
		}
	}
	return "", false
}

func clone(turns []Turn) []Turn {
	if len(turns) == 0 {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
