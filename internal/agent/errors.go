package agent

import "errors"

var (
	// ErrLLMCall wraps a transport or model failure from the LLM provider
	ErrLLMCall = errors.New("llm call failed")

	// ErrLLMTimeout is returned when an LLM call exceeds its deadline
	ErrLLMTimeout = errors.New("llm call timed out")

	// ErrToolLoopExceeded is returned when the model keeps requesting tools
	// past the configured number of round trips
	ErrToolLoopExceeded = errors.New("tool call loop exceeded")
)
