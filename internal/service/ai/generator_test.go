package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sujith-hx/aroha/internal/model/conversation"
)

// stubChatModel scripts one reply (or error) and records what it was asked.
type stubChatModel struct {
	reply *schema.Message
	err   error

	gotMessages    []*schema.Message
	gotTemperature *float32
	gotMaxTokens   *int
}

func (s *stubChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.gotMessages = in
	common := model.GetCommonOptions(&model.Options{}, opts...)
	s.gotTemperature = common.Temperature
	s.gotMaxTokens = common.MaxTokens
	return s.reply, s.err
}

func (s *stubChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not scripted")
}

func (s *stubChatModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func TestTemperatureForUrgency(t *testing.T) {
	tests := []struct {
		urgency float64
		want    float64
	}{
		{0.0, 1.0},
		{0.5, 0.5},
		{0.7, 0.3},
		{0.9, 0.3},
		{1.0, 0.3},
	}
	for _, tt := range tests {
		if got := TemperatureForUrgency(tt.urgency); got != tt.want {
			t.Fatalf("TemperatureForUrgency(%v) = %v, want %v", tt.urgency, got, tt.want)
		}
	}
}

func TestGenerateBuildsContext(t *testing.T) {
	stub := &stubChatModel{reply: schema.AssistantMessage("I'm here with you.", nil)}
	gen := NewGenerator(stub, "")

	history := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
		{Role: conversation.RoleUser, Content: "I feel low"},
	}

	reply := gen.Generate(context.Background(), history, 0.4)
	if reply != "I'm here with you." {
		t.Fatalf("reply = %q", reply)
	}

	if len(stub.gotMessages) != 4 {
		t.Fatalf("messages sent = %d, want system + 3 history", len(stub.gotMessages))
	}
	if stub.gotMessages[0].Role != schema.System {
		t.Fatalf("first message role = %s, want system", stub.gotMessages[0].Role)
	}
	if last := stub.gotMessages[3]; last.Role != schema.User || last.Content != "I feel low" {
		t.Fatalf("last message = %s %q", last.Role, last.Content)
	}

	if stub.gotTemperature == nil || *stub.gotTemperature != float32(0.4) {
		t.Fatalf("temperature option = %v, want 0.4", stub.gotTemperature)
	}
	if stub.gotMaxTokens == nil || *stub.gotMaxTokens != maxReplyTokens {
		t.Fatalf("max tokens option = %v, want %d", stub.gotMaxTokens, maxReplyTokens)
	}
}

func TestGenerateTruncatesHistory(t *testing.T) {
	stub := &stubChatModel{reply: schema.AssistantMessage("ok", nil)}
	gen := NewGenerator(stub, "")

	var history []conversation.Turn
	for i := 0; i < 15; i++ {
		history = append(history, conversation.Turn{
			Role:    conversation.RoleUser,
			Content: fmt.Sprintf("turn %d", i),
		})
	}

	gen.Generate(context.Background(), history, 0.5)

	if len(stub.gotMessages) != historyLimit+1 {
		t.Fatalf("messages sent = %d, want %d", len(stub.gotMessages), historyLimit+1)
	}
	// Oldest turns drop off; the window keeps the most recent ones.
	if got := stub.gotMessages[1].Content; got != "turn 5" {
		t.Fatalf("first history message = %q, want %q", got, "turn 5")
	}
	if got := stub.gotMessages[historyLimit].Content; got != "turn 14" {
		t.Fatalf("last history message = %q, want %q", got, "turn 14")
	}
}

func TestGenerateFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		stub *stubChatModel
	}{
		{"model error", &stubChatModel{err: errors.New("upstream down")}},
		{"nil reply", &stubChatModel{}},
		{"blank reply", &stubChatModel{reply: schema.AssistantMessage("   ", nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(tt.stub, "")
			if got := gen.Generate(context.Background(), nil, 0.5); got != FallbackReply {
				t.Fatalf("reply = %q, want fallback", got)
			}
		})
	}
}

func TestGenerateWithoutModel(t *testing.T) {
	gen := NewGenerator(nil, "")
	if got := gen.Generate(context.Background(), nil, 0.5); got != FallbackReply {
		t.Fatalf("reply = %q, want fallback", got)
	}
}
