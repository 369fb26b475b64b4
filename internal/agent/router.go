package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/rs/zerolog/log"
)

// State is a node of the per-turn state machine
type State string

const (
	StateLLMCall      State = "LLM_CALL"
	StateToolCall     State = "TOOL_CALL"
	StateMemoryUpdate State = "MEMORY_UPDATE"
	StateDone         State = "DONE"
)

// Router drives one user turn through the LLM, tool and memory nodes
type Router struct {
	provider   llm.Provider
	toolbox    *Toolbox
	summarizer *Summarizer
	opts       Options
}

// NewRouter creates a turn router. The summarizer shares the router's
// provider and model.
func NewRouter(provider llm.Provider, toolbox *Toolbox, opts Options) *Router {
	if toolbox == nil {
		toolbox = NewToolbox()
	}
	defaults := DefaultOptions()
	if opts.ContextMode == "" {
		opts.ContextMode = defaults.ContextMode
	}
	if opts.LastK <= 0 {
		opts.LastK = defaults.LastK
	}
	if opts.SummaryWindow <= 0 {
		opts.SummaryWindow = defaults.SummaryWindow
	}
	if opts.MaxSummaryChars <= 0 {
		opts.MaxSummaryChars = defaults.MaxSummaryChars
	}
	if opts.NameLookback <= 0 {
		opts.NameLookback = defaults.NameLookback
	}
	return &Router{
		provider:   provider,
		toolbox:    toolbox,
		summarizer: NewSummarizer(provider, opts.Model, opts.MaxSummaryChars, opts.LLMTimeout),
		opts:       opts,
	}
}

// Advance applies userText to session and returns the updated session. The
// input session is never modified; on error it remains the last good state.
func (r *Router) Advance(ctx context.Context, session *domain.Session, userText string) (*domain.Session, error) {
	working := session.Clone()
	working.Append(domain.NewMessage(domain.RoleHuman, userText))

	ctx = domain.WithThreadID(ctx, working.ThreadID)
	logger := log.With().Str("thread_id", working.ThreadID).Logger()

	rounds := 0
	state := StateLLMCall
	for state != StateDone {
		logger.Debug().Str("state", string(state)).Msg("Turn step")

		switch state {
		case StateLLMCall:
			msg, err := r.invoke(ctx, working)
			if err != nil {
				logger.Error().Err(err).Msg("LLM call failed")
				return nil, err
			}
			working.Append(msg)
			if msg.HasToolCalls() {
				state = StateToolCall
			} else {
				state = StateMemoryUpdate
			}

		case StateToolCall:
			rounds++
			if r.opts.MaxToolRounds > 0 && rounds > r.opts.MaxToolRounds {
				return nil, fmt.Errorf("%w: more than %d rounds", ErrToolLoopExceeded, r.opts.MaxToolRounds)
			}
			last := working.Messages[len(working.Messages)-1]
			for _, call := range last.ToolCalls {
				working.Append(r.toolbox.Execute(ctx, call))
			}
			state = StateLLMCall

		case StateMemoryUpdate:
			r.updateMemory(ctx, working)
			state = StateDone
		}
	}

	working.UpdatedAt = time.Now().UTC()
	return working, nil
}

// Prompt builds the message list sent to the model for session
func (r *Router) Prompt(session *domain.Session) []domain.Message {
	history := session.Messages
	if r.opts.ContextMode == ContextCompact {
		history = Trim(history, r.opts.LastK)
	}
	prompt := make([]domain.Message, 0, len(history)+1)
	prompt = append(prompt, BuildContext(session.Profile, session.Summary))
	return append(prompt, history...)
}

func (r *Router) invoke(ctx context.Context, session *domain.Session) (domain.Message, error) {
	if r.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.LLMTimeout)
		defer cancel()
	}

	resp, err := r.provider.Chat(ctx, llm.Request{
		Messages:    r.Prompt(session),
		Tools:       r.toolbox.Definitions(),
		Temperature: r.opts.Temperature,
	}, r.opts.Model)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Message{}, fmt.Errorf("%w: %w", ErrLLMTimeout, err)
		}
		return domain.Message{}, fmt.Errorf("%w: %w", ErrLLMCall, err)
	}

	log.Debug().
		Str("provider", r.provider.Name()).
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Int64("latency_ms", resp.LatencyMs).
		Int("tool_calls", len(resp.Message.ToolCalls)).
		Msg("LLM responded")

	msg := resp.Message
	msg.Role = domain.RoleAssistant
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return msg, nil
}

func (r *Router) updateMemory(ctx context.Context, session *domain.Session) {
	if CaptureName(session, r.opts.NameLookback, r.opts.OverwriteName) {
		log.Info().
			Str("thread_id", session.ThreadID).
			Str("name", session.Profile[domain.ProfileName]).
			Msg("Captured profile name")
	}

	session.Summary = r.summarizer.Update(ctx, session.Summary, Trim(session.Messages, r.opts.SummaryWindow))
}
