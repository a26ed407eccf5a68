package model

import (
	"fmt"
	"strings"
)

// Persona is the behavioral/identity configuration of the assistant. The
// preamble is opaque text as far as the rest of the system is concerned:
// swapping it changes the assistant, not the code.
type Persona struct {
	// Name is the provider name reported alongside replies, e.g. "Sam AI".
	Name string `yaml:"name"`

	// AssistantLabel labels assistant lines in the assembled prompt and cues
	// the model to continue, e.g. "Sam".
	AssistantLabel string `yaml:"assistant_label"`

	// Preamble is the static persona description placed at the top of every
	// prompt.
	Preamble string `yaml:"preamble"`

	// Fallback is the reply rendered locally when the model service fails.
	// An optional "%s" is substituted with the user message.
	Fallback string `yaml:"fallback"`
}

// FallbackReply renders the local fallback text for a failed exchange.
func (p Persona) FallbackReply(userMessage string) string {
	if strings.Contains(p.Fallback, "%s") {
		return fmt.Sprintf(p.Fallback, userMessage)
	}
	return p.Fallback
}
