package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	threadPrompt = "Enter your thread id: "
	inputPrompt  = "You: "
	replyPrefix  = "Assistant: "

	// Greeting is shown when a thread has no history yet
	Greeting = "Hi! I can help with onboarding. What is your name?"
)

// Chat is the part of the chat service the REPL drives
type Chat interface {
	Submit(ctx context.Context, threadID, text string) (*service.TurnResult, error)
	History(ctx context.Context, threadID string) (*domain.Session, error)
}

// REPL reads one line per turn from in and prints replies to out
type REPL struct {
	in   *bufio.Reader
	out  io.Writer
	chat Chat
}

func NewREPL(in io.Reader, out io.Writer, chat Chat) *REPL {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	return &REPL{
		in:   bufio.NewReader(in),
		out:  out,
		chat: chat,
	}
}

// Run asks for a thread id and then loops until "exit", EOF or ctx is done.
// Failed turns print the fallback reply and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	threadID, err := r.readThreadID()
	if err != nil || threadID == "" {
		return err
	}

	if session, err := r.chat.History(ctx, threadID); err != nil {
		log.Warn().Err(err).Str("thread_id", threadID).Msg("failed to load history")
	} else if session.IsNew() {
		if err := r.reply(Greeting); err != nil {
			return err
		}
	} else if last := session.LastAssistantReply(); last != "" {
		if err := r.reply(last); err != nil {
			return err
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := io.WriteString(r.out, inputPrompt); err != nil {
			return err
		}
		line, readErr := r.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}

		text := strings.TrimSpace(line)
		if strings.EqualFold(text, "exit") {
			return nil
		}
		if text != "" {
			if err := r.turn(ctx, threadID, text); err != nil {
				return err
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

func (r *REPL) readThreadID() (string, error) {
	for {
		if _, err := io.WriteString(r.out, threadPrompt); err != nil {
			return "", err
		}
		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if id := strings.TrimSpace(line); id != "" {
			return id, nil
		}
		if errors.Is(err, io.EOF) {
			return "", nil
		}
	}
}

func (r *REPL) turn(ctx context.Context, threadID, text string) error {
	result, err := r.chat.Submit(ctx, threadID, text)
	if err != nil {
		log.Error().Err(err).Str("thread_id", threadID).Msg("turn failed")
		return r.reply(service.FallbackReply)
	}
	return r.reply(result.Reply)
}

func (r *REPL) reply(text string) error {
	_, err := fmt.Fprintf(r.out, "%s%s\n", replyPrefix, text)
	return err
}
