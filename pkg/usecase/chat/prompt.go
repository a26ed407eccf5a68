package chat

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/m-mizutani/samcore/pkg/model"
)

//go:embed prompt/persona.md
var defaultPreambleRaw string

const humanLabel = "Human"

// DefaultPersona returns the built-in Sam AI persona.
func DefaultPersona() model.Persona {
	return model.Persona{
		Name:           "Sam AI",
		AssistantLabel: "Sam",
		Preamble:       strings.TrimSpace(defaultPreambleRaw),
		Fallback:       "Yo, I'm Sam AI Core - 16, independent builder, trader, self-taught developer! 😄 You asked: '%s'. Let's be real and solve this! What's the actual problem we need to tackle? 🔥",
	}
}

// BuildPrompt assembles the full model input for one exchange: optional
// personalization block, persona preamble, tool and image instructions, the
// labelled history lines, the new user line and the trailing assistant cue.
// Pure function: identical inputs produce identical output.
func BuildPrompt(persona model.Persona, userInfo *model.UserProfile, tool *model.Tool, hasImage bool, history []model.Turn, userMessage string) string {
	var sb strings.Builder

	if userInfo != nil && userInfo.Name != "" {
		sb.WriteString(fmt.Sprintf("PERSONALIZATION: You are talking to %s", userInfo.Name))
		if userInfo.Age > 0 {
			sb.WriteString(fmt.Sprintf(", who is %d years old", userInfo.Age))
		}
		sb.WriteString(". Address them by name when it fits.\n\n")
	}

	sb.WriteString(persona.Preamble)
	sb.WriteString("\n\n")

	if tool != nil {
		sb.WriteString(fmt.Sprintf("IMPORTANT: The user has selected the '%s' tool. Use this tool's capabilities in your response when relevant.\n", tool.Name))
	}
	if hasImage {
		sb.WriteString("IMPORTANT: The user has attached an image. Analyze and respond to the image content when relevant.\n")
	}

	for _, turn := range history {
		label := humanLabel
		if turn.Role == model.RoleAssistant {
			label = persona.AssistantLabel
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}

	sb.WriteString(humanLabel)
	sb.WriteString(": ")
	sb.WriteString(userMessage)
	sb.WriteString("\n\n")
	sb.WriteString(persona.AssistantLabel)
	sb.WriteString(":")

	return sb.String()
}
