package assistant

import (
	"testing"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/actions"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToContents(t *testing.T) {
	callA := actions.Call{ID: "1", Name: actions.NameSearch, Args: map[string]any{"location": "Bangsar"}}
	callB := actions.Call{ID: "2", Name: actions.NameListMine}
	turns := []Turn{
		SystemTurn("be helpful"),
		UserTurn("find me a desk"),
		{Role: RoleAssistant, Text: "Looking.", Calls: []actions.Call{callA, callB}},
		ActionResultTurn(callA, "Found 2 space(s)"),
		ActionResultTurn(callB, "You don't have any upcoming bookings."),
	}

	system, contents, err := toContents(turns)
	require.NoError(t, err)
	assert.Equal(t, "be helpful", system)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, []genai.Part{genai.Text("find me a desk")}, contents[0].Parts)

	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 3)
	assert.Equal(t, genai.FunctionCall{Name: actions.NameSearch, Args: callA.Args}, contents[1].Parts[1])

	assert.Equal(t, "function", contents[2].Role)
	require.Len(t, contents[2].Parts, 2, "consecutive results share one content")
	assert.Equal(t, genai.FunctionResponse{
		Name:     actions.NameListMine,
		Response: map[string]any{"result": "You don't have any upcoming bookings."},
	}, contents[2].Parts[1])
}

func TestToContentsRejectsTrailingModelTurn(t *testing.T) {
	_, _, err := toContents([]Turn{UserTurn("hi"), AssistantTurn("hello")})
	assert.Error(t, err)

	_, _, err = toContents([]Turn{SystemTurn("only instructions")})
	assert.Error(t, err)
}

func TestToTools(t *testing.T) {
	tools := toTools([]actions.Spec{
		{
			Name: actions.NameSearch,
			Params: []actions.Param{
				{Name: "space_type", Type: actions.TypeString, Enum: []string{"hot_desk"}},
				{Name: "min_capacity", Type: actions.TypeInteger},
			},
		},
		{
			Name:   actions.NameCancel,
			Params: []actions.Param{{Name: "booking_id", Type: actions.TypeString, Required: true}},
		},
		{Name: "noop"},
	})
	require.Len(t, tools, 1)
	decls := tools[0].FunctionDeclarations
	require.Len(t, decls, 3)

	search := decls[0].Parameters
	assert.Equal(t, genai.TypeObject, search.Type)
	assert.Equal(t, genai.TypeInteger, search.Properties["min_capacity"].Type)
	assert.Equal(t, "enum", search.Properties["space_type"].Format)
	assert.Empty(t, search.Required)

	assert.Equal(t, []string{"booking_id"}, decls[1].Parameters.Required)
	assert.Nil(t, decls[2].Parameters)

	assert.Nil(t, toTools(nil))
}

func TestFromResponse(t *testing.T) {
	t.Run("text and calls", func(t *testing.T) {
		reply, err := fromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{
				genai.Text("Checking "),
				genai.Text("now."),
				genai.FunctionCall{Name: actions.NameCheckAvailability, Args: map[string]any{"space_id": float64(1)}},
			}},
		}}})
		require.NoError(t, err)
		assert.Equal(t, "Checking now.", reply.Text)
		require.Len(t, reply.Calls, 1)
		assert.Equal(t, actions.NameCheckAvailability, reply.Calls[0].Name)
		assert.NotEmpty(t, reply.Calls[0].ID)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, resp := range []*genai.GenerateContentResponse{
			nil,
			{},
		} {
			_, err := fromResponse(resp)
			assert.ErrorIs(t, err, ErrMalformedReply)
		}
	})

	t.Run("empty answer", func(t *testing.T) {
		for _, resp := range []*genai.GenerateContentResponse{
			{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
		} {
			reply, err := fromResponse(resp)
			require.NoError(t, err)
			assert.Equal(t, Reply{}, reply)
		}
	})
}
