package ai

import (
	"context"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sujith-hx/aroha/internal/analysis/emotion"
)

// Classifier assesses the emotional tone and urgency of a single utterance
// with one model call. Classification is best-effort: any transport or
// parse failure yields the default assessment rather than an error.
type Classifier struct {
	chatModel model.ChatModel
}

// NewClassifier wraps an existing chat model; the model instance is shared
// with the response generator.
func NewClassifier(chatModel model.ChatModel) *Classifier {
	return &Classifier{chatModel: chatModel}
}

// Classify returns an Assessment for the utterance. Never blocks the
// conversation: on any failure it returns {neutral, 0.5}.
func (c *Classifier) Classify(ctx context.Context, utterance string) emotion.Assessment {
	if c == nil || c.chatModel == nil {
		return emotion.Default()
	}

	messages := []*schema.Message{
		schema.SystemMessage(classifierPrompt),
		schema.UserMessage(utterance),
	}

	reply, err := c.chatModel.Generate(ctx, messages,
		model.WithTemperature(0.1),
		model.WithMaxTokens(100),
	)
	if err != nil {
		log.Printf("[emotion] classification failed, using default assessment: %v", err)
		return emotion.Default()
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return emotion.Default()
	}

	return emotion.ParseAssessment(reply.Content)
}
