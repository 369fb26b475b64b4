package agent

import (
	"time"

	"github.com/Rrens/onboarding-agent/internal/config"
)

// ContextMode selects how much history the LLM sees
type ContextMode string

const (
	// ContextCompact sends the system block plus the last K messages
	ContextCompact ContextMode = "compact"
	// ContextFull sends the system block plus the whole transcript
	ContextFull ContextMode = "full"
)

// Options tunes the turn router
type Options struct {
	ContextMode     ContextMode
	Model           string
	Temperature     float64
	LastK           int
	SummaryWindow   int
	MaxSummaryChars int
	NameLookback    int
	OverwriteName   bool
	LLMTimeout      time.Duration
	MaxToolRounds   int
}

// DefaultOptions returns the compact configuration
func DefaultOptions() Options {
	return Options{
		ContextMode:     ContextCompact,
		Temperature:     0.2,
		LastK:           6,
		SummaryWindow:   4,
		MaxSummaryChars: 2000,
		NameLookback:    3,
		LLMTimeout:      60 * time.Second,
		MaxToolRounds:   6,
	}
}

// OptionsFromConfig builds router options from application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ContextMode:     ContextMode(cfg.Agent.ContextMode),
		Model:           cfg.Agent.Model,
		Temperature:     cfg.LLM.Temperature,
		LastK:           cfg.Agent.LastK,
		SummaryWindow:   cfg.Agent.SummaryWindow,
		MaxSummaryChars: cfg.Agent.MaxSummaryChars,
		NameLookback:    cfg.Agent.NameLookback,
		OverwriteName:   cfg.Agent.OverwriteName,
		LLMTimeout:      cfg.Agent.LLMTimeout,
		MaxToolRounds:   cfg.Agent.MaxToolRounds,
	}
}
