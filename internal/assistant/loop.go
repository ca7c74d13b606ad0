package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/actions"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"go.uber.org/zap"
)

// Messages returned to the caller when the loop cannot produce an answer.
const (
	FailureMessage  = "Sorry, the assistant is unavailable right now. Please try again in a moment."
	DegradedMessage = "Sorry, I couldn't finish working on that request. Could you try breaking it into smaller steps?"

	// EmptyAnswerMessage stands in when the reasoning service finishes
	// without any text for the current message.
	EmptyAnswerMessage = "Sorry, I don't have an answer for that. Could you rephrase your request?"
)

// Reply is one reasoning-service output. Zero Calls means a final answer.
type Reply struct {
	Text  string
	Calls []actions.Call
}

// Reasoner is the external reasoning service. One call is atomic.
type Reasoner interface {
	Reason(ctx context.Context, turns []Turn, catalog []actions.Spec) (Reply, error)
}

// Executor runs actions. *actions.Registry is the production implementation.
type Executor interface {
	Execute(ctx context.Context, actor *model.Actor, call actions.Call) string
	Catalog() []actions.Spec
}

// Config controls a Loop.
type Config struct {
	// MaxRoundTrips caps reasoning calls per Run.
	MaxRoundTrips    int
	ReasoningTimeout time.Duration
	Prompt           PromptConfig
	Now              func() time.Time
}

// Result is the outcome of one Run.
type Result struct {
	Answer       string
	Conversation Conversation
	// Steps counts reasoning calls made.
	Steps int
	// Degraded is set when the round-trip ceiling cut the loop short.
	Degraded bool
}

// Loop drives the Reasoning/Acting cycle for one user message at a time.
// It holds no per-conversation state and is safe for concurrent use.
type Loop struct {
	reasoner Reasoner
	executor Executor
	cfg      Config
	log      *zap.Logger
}

// NewLoop constructs a Loop.
func NewLoop(reasoner Reasoner, executor Executor, cfg Config, log *zap.Logger) *Loop {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxRoundTrips <= 0 {
		cfg.MaxRoundTrips = 8
	}
	return &Loop{reasoner: reasoner, executor: executor, cfg: cfg, log: log}
}

// Run answers message in the context of history on behalf of actor (nil for
// anonymous).
//
// On a reasoning failure Run returns an error wrapping
// model.ErrUpstreamFailure together with a Result whose Answer is
// FailureMessage and whose Conversation is history unchanged.
func (l *Loop) Run(ctx context.Context, actor *model.Actor, history []Turn, message string) (Result, error) {
	conv := NewConversation(SystemTurn(SystemPrompt(l.cfg.Prompt, l.cfg.Now())))
	conv = conv.Append(withoutSystem(history)...)
	conv = conv.Append(UserTurn(message))

	catalog := l.executor.Catalog()
	log := l.log.With(zap.Bool("authenticated", actor != nil))

	for step := 1; step <= l.cfg.MaxRoundTrips; step++ {
		reply, err := l.reason(ctx, conv, catalog)
		if err != nil {
			metrics.ObserveRoundTrips(step)
			log.Warn("reasoning failed", zap.Int("step", step), zap.Error(err))
			return Result{
				Answer:       FailureMessage,
				Conversation: NewConversation(history...),
				Steps:        step,
			}, fmt.Errorf("%w: step %d: %w", model.ErrUpstreamFailure, step, err)
		}

		if reply.Text != "" || len(reply.Calls) > 0 {
			conv = conv.Append(Turn{Role: RoleAssistant, Text: reply.Text, Calls: reply.Calls})
		}
		if len(reply.Calls) == 0 {
			metrics.ObserveRoundTrips(step)
			answer, ok := conv.LastAnswer()
			if !ok {
				log.Warn("reasoning finished without an answer", zap.Int("step", step))
				answer = EmptyAnswerMessage
				conv = conv.Append(AssistantTurn(answer))
			}
			log.Debug("turn complete", zap.Int("steps", step), zap.Int("turns", conv.Len()))
			return Result{Answer: answer, Conversation: dropSystem(conv), Steps: step}, nil
		}

		results := make([]Turn, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			log.Debug("executing action", zap.String("action", call.Name), zap.String("call_id", call.ID))
			results = append(results, ActionResultTurn(call, l.executor.Execute(ctx, actor, call)))
		}
		conv = conv.Append(results...)
	}

	metrics.ObserveRoundTrips(l.cfg.MaxRoundTrips)
	metrics.IncDegradedTurn()
	log.Warn("round-trip ceiling reached", zap.Int("max_round_trips", l.cfg.MaxRoundTrips))

	return Result{
		Answer:       DegradedMessage,
		Conversation: dropSystem(conv).Append(AssistantTurn(DegradedMessage)),
		Steps:        l.cfg.MaxRoundTrips,
		Degraded:     true,
	}, nil
}

func (l *Loop) reason(ctx context.Context, conv Conversation, catalog []actions.Spec) (Reply, error) {
	if l.cfg.ReasoningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.ReasoningTimeout)
		defer cancel()
	}
	started := time.Now()
	reply, err := l.reasoner.Reason(ctx, conv.Turns(), catalog)
	metrics.ObserveReasoning(time.Since(started), err)
	return reply, err
}

func withoutSystem(turns []Turn) []Turn {
	return NewConversation(turns...).WithoutSystem()
}

func dropSystem(c Conversation) Conversation {
	return NewConversation(c.WithoutSystem()...)
}
