package ai

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sujith-hx/aroha/internal/model/conversation"
)

// historyLimit caps how many turns of rolling history go into the context
// window of a generation call.
const historyLimit = 10

// maxReplyTokens bounds a single assistant reply.
const maxReplyTokens = 250

// Generator produces the assistant turn from the conversation history.
type Generator struct {
	chatModel    model.ChatModel
	systemPrompt string
}

// NewGenerator builds a Generator over the given chat model.
func NewGenerator(chatModel model.ChatModel, systemPrompt string) *Generator {
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	return &Generator{chatModel: chatModel, systemPrompt: systemPrompt}
}

// TemperatureForUrgency maps urgency to sampling temperature. Higher
// urgency narrows sampling diversity, trading creativity for consistency
// when the user is in acute distress.
func TemperatureForUrgency(urgency float64) float64 {
	return math.Max(0.3, 1.0-urgency)
}

// Generate returns the assistant reply for the current history at the given
// temperature. Service failure yields a fixed, safe fallback line instead
// of an error so the transcript always continues.
func (g *Generator) Generate(ctx context.Context, history []conversation.Turn, temperature float64) string {
	if g == nil || g.chatModel == nil {
		return FallbackReply
	}

	messages := make([]*schema.Message, 0, historyLimit+1)
	messages = append(messages, schema.SystemMessage(g.systemPrompt))
	messages = append(messages, buildHistoryMessages(history)...)

	reply, err := g.chatModel.Generate(ctx, messages,
		model.WithTemperature(float32(temperature)),
		model.WithMaxTokens(maxReplyTokens),
	)
	if err != nil {
		log.Printf("[ai] generation failed, using fallback reply: %v", err)
		return FallbackReply
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return FallbackReply
	}

	log.Printf("[ai] generated reply, length=%d", len(reply.Content))
	return reply.Content
}

func buildHistoryMessages(history []conversation.Turn) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	start := 0
	if len(history) > historyLimit {
		start = len(history) - historyLimit
	}

	messages := make([]*schema.Message, 0, len(history)-start)
	for _, turn := range history[start:] {
		switch turn.Role {
		case conversation.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case conversation.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}
