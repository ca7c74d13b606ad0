package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/actions"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ErrMalformedReply is returned when the response carries no candidate.
var ErrMalformedReply = errors.New("malformed reasoning reply")

// GeminiConfig configures GeminiReasoner.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiReasoner is a Reasoner backed by the Gemini API with function calling.
type GeminiReasoner struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGeminiReasoner creates a Gemini client.
func NewGeminiReasoner(ctx context.Context, cfg GeminiConfig) (*GeminiReasoner, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiReasoner{client: client, cfg: cfg}, nil
}

// Close releases the underlying client.
func (g *GeminiReasoner) Close() error {
	return g.client.Close()
}

// Reason implements Reasoner. Every call is stateless: the whole
// conversation is replayed as chat history.
func (g *GeminiReasoner) Reason(ctx context.Context, turns []Turn, catalog []actions.Spec) (Reply, error) {
	system, contents, err := toContents(turns)
	if err != nil {
		return Reply{}, err
	}

	model := g.client.GenerativeModel(g.cfg.Model)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	model.Tools = toTools(catalog)
	if g.cfg.Temperature > 0 {
		model.SetTemperature(g.cfg.Temperature)
	}
	if g.cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(g.cfg.MaxOutputTokens)
	}

	last := contents[len(contents)-1]
	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini send message: %w", err)
	}
	return fromResponse(resp)
}

// toContents maps turns onto Gemini chat contents. System turns become the
// system instruction; consecutive action results collapse into one
// function-role content. The final content must be user or function input.
func toContents(turns []Turn) (string, []*genai.Content, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, t := range turns {
		switch t.Role {
		case RoleSystem:
			system = append(system, t.Text)
		case RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(t.Text)}})
		case RoleAssistant:
			var parts []genai.Part
			if t.Text != "" {
				parts = append(parts, genai.Text(t.Text))
			}
			for _, c := range t.Calls {
				parts = append(parts, genai.FunctionCall{Name: c.Name, Args: c.Args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case RoleActionResult:
			part := genai.FunctionResponse{Name: t.Action, Response: map[string]any{"result": t.Text}}
			if n := len(contents); n > 0 && contents[n-1].Role == "function" {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "function", Parts: []genai.Part{part}})
		default:
			return "", nil, fmt.Errorf("unsupported turn role %q", t.Role)
		}
	}
	if len(contents) == 0 || contents[len(contents)-1].Role == "model" {
		return "", nil, errors.New("conversation must end with user input or action results")
	}
	return strings.Join(system, "\n\n"), contents, nil
}

func toTools(catalog []actions.Spec) []*genai.Tool {
	if len(catalog) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, spec := range catalog {
		schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
		for _, p := range spec.Params {
			prop := &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
			if len(p.Enum) > 0 {
				prop.Format = "enum"
				prop.Enum = p.Enum
			}
			schema.Properties[p.Name] = prop
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decl := &genai.FunctionDeclaration{Name: spec.Name, Description: spec.Description}
		if len(spec.Params) > 0 {
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaType(t actions.ParamType) genai.Type {
	switch t {
	case actions.TypeInteger:
		return genai.TypeInteger
	case actions.TypeNumber:
		return genai.TypeNumber
	case actions.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func fromResponse(resp *genai.GenerateContentResponse) (Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}, fmt.Errorf("%w: no candidates", ErrMalformedReply)
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return Reply{}, nil
	}

	var (
		text  strings.Builder
		reply Reply
	)
	for _, part := range cand.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			reply.Calls = append(reply.Calls, actions.Call{ID: uuid.NewString(), Name: p.Name, Args: p.Args})
		}
	}
	reply.Text = strings.TrimSpace(text.String())
	return reply, nil
}
