package completion

import (
	"context"
	"errors"
)

var ErrEmptyChoices = errors.New("completion: empty choices")

// Completer sends a system instruction and a user prompt to a chat model and
// returns the text of the first choice.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Sampling settings are fixed for every request.
const (
	DefaultModel     = "gpt-3.5-turbo"
	MaxTokens        = 1000
	TopP             = 1
	FrequencyPenalty = 0
	PresencePenalty  = 0
	StopSequence     = " ;"
)
