package transform

import (
	"context"
	"fmt"

	"moodshift/internal/prompts"
)

// editPromptTokenBudget keeps the synthesized instruction short; the edit
// model works best with a tight, single instruction.
const editPromptTokenBudget = 500

// ChatService is the chat-completion call the synthesizer depends on.
type ChatService interface {
	Chat(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error)
}

// Synthesizer combines a song's visual aesthetic with the photo's own
// context into one edit instruction.
type Synthesizer struct {
	chat ChatService
}

func NewSynthesizer(chat ChatService) *Synthesizer {
	return &Synthesizer{chat: chat}
}

// Synthesize builds the user message from the aesthetic text and whatever
// metadata the image offered, and asks the chat model for the edit prompt.
func (s *Synthesizer) Synthesize(ctx context.Context, aestheticText string, meta Metadata, songTitle, artistName string) (string, error) {
	userMessage := fmt.Sprintf(
		"Transform this photo to match the vibe of '%s' by %s.\n\n"+
			"VISUAL AESTHETIC:\n%s\n\n"+
			"IMAGE CONTEXT:\n%s\n\n"+
			"Apply the visual aesthetic above to transform the image.",
		songTitle, artistName, aestheticText, meta.contextBlock(),
	)

	return s.chat.Chat(ctx, prompts.SynthesizeEdit, userMessage, editPromptTokenBudget)
}
