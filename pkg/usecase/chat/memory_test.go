package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/usecase/chat"
	"google.golang.org/genai"
)

// mockSummarizer is a mock implementation of chat.Summarizer for testing
type mockSummarizer struct {
	summarizeFunc func(ctx context.Context, prior string, folded []*model.Message) (string, error)
	calls         int
}

func (m *mockSummarizer) Summarize(ctx context.Context, prior string, folded []*model.Message) (string, error) {
	m.calls++
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, prior, folded)
	}
	return "summary", nil
}

func userMsg(content string) *model.Message {
	return &model.Message{
		ID:        model.NewMessageID(),
		SessionID: "s1",
		Role:      model.RoleUser,
		Content:   content,
	}
}

func assistantMsg(content string) *model.Message {
	return &model.Message{
		ID:        model.NewMessageID(),
		SessionID: "s1",
		Role:      model.RoleAssistant,
		Content:   content,
	}
}

func TestMemoryContents(t *testing.T) {
	t.Run("messages keep order and roles", func(t *testing.T) {
		m := chat.NewMemory(nil, 1000, 10)
		m.Append(userMsg("hello"))
		m.Append(assistantMsg("hi, how can I help?"))

		contents := m.Contents()
		gt.V(t, len(contents)).Equal(2)
		gt.V(t, contents[0].Role).Equal(genai.RoleUser)
		gt.V(t, contents[0].Parts[0].Text).Equal("hello")
		gt.V(t, contents[1].Role).Equal(genai.RoleModel)
	})

	t.Run("window caps verbatim messages", func(t *testing.T) {
		m := chat.NewMemory(nil, 100000, 3)
		for i := 0; i < 8; i++ {
			m.Append(userMsg(fmt.Sprintf("message %d", i)))
		}

		contents := m.Contents()
		gt.V(t, len(contents)).Equal(3)
		gt.V(t, contents[0].Parts[0].Text).Equal("message 5")
		gt.V(t, contents[2].Parts[0].Text).Equal("message 7")
	})

	t.Run("tool results are labeled", func(t *testing.T) {
		m := chat.NewMemory(nil, 1000, 10)
		m.Append(&model.Message{
			SessionID: "s1",
			Role:      model.RoleSystem,
			ToolName:  "search_articles",
			Content:   "Found 1 articles",
		})

		contents := m.Contents()
		gt.V(t, len(contents)).Equal(1)
		gt.S(t, contents[0].Parts[0].Text).Contains("search_articles")
	})
}

func TestMemoryFold(t *testing.T) {
	ctx := context.Background()

	t.Run("under budget folds nothing", func(t *testing.T) {
		summarizer := &mockSummarizer{}
		m := chat.NewMemory(summarizer, 1000, 10)
		m.Append(userMsg("short"))
		m.Append(assistantMsg("also short"))

		m.Fold(ctx)
		gt.V(t, summarizer.calls).Equal(0)
		gt.V(t, m.Summary()).Equal("")
		gt.V(t, len(m.Recent())).Equal(2)
	})

	t.Run("forty turns fold into a rolling summary", func(t *testing.T) {
		var foldedCount int
		summarizer := &mockSummarizer{
			summarizeFunc: func(ctx context.Context, prior string, folded []*model.Message) (string, error) {
				foldedCount = len(folded)
				return "the user has been discussing their travel notes", nil
			},
		}

		// budget 50, window 10: each message is 40 runes, about 10 tokens
		m := chat.NewMemory(summarizer, 50, 10)
		for i := 0; i < 40; i++ {
			m.Append(userMsg(strings.Repeat("a", 40)))
		}

		m.Fold(ctx)

		gt.V(t, summarizer.calls).Equal(1)
		gt.B(t, foldedCount > 0).True()
		gt.V(t, m.Summary()).Equal("the user has been discussing their travel notes")

		// Working set is back within budget
		gt.B(t, len(m.Recent()) <= 5).True()
		gt.B(t, len(m.Recent()) >= 1).True()

		// Summary leads the rendered contents
		contents := m.Contents()
		gt.S(t, contents[0].Parts[0].Text).Contains("Previous Conversation Summary")
		gt.S(t, contents[0].Parts[0].Text).Contains("travel notes")
	})

	t.Run("prior summary is handed to the summarizer", func(t *testing.T) {
		var gotPrior string
		summarizer := &mockSummarizer{
			summarizeFunc: func(ctx context.Context, prior string, folded []*model.Message) (string, error) {
				gotPrior = prior
				return "merged summary", nil
			},
		}

		m := chat.NewMemory(summarizer, 20, 10)
		for i := 0; i < 10; i++ {
			m.Append(userMsg(strings.Repeat("b", 40)))
		}
		m.Fold(ctx)
		gt.V(t, m.Summary()).Equal("merged summary")

		for i := 0; i < 10; i++ {
			m.Append(userMsg(strings.Repeat("c", 40)))
		}
		m.Fold(ctx)

		gt.V(t, gotPrior).Equal("merged summary")
	})

	t.Run("summarizer failure keeps the working set", func(t *testing.T) {
		summarizer := &mockSummarizer{
			summarizeFunc: func(ctx context.Context, prior string, folded []*model.Message) (string, error) {
				return "", errors.New("summarizer down")
			},
		}

		m := chat.NewMemory(summarizer, 50, 10)
		for i := 0; i < 20; i++ {
			m.Append(userMsg(strings.Repeat("d", 40)))
		}

		m.Fold(ctx)

		gt.V(t, m.Summary()).Equal("")
		gt.V(t, len(m.Recent())).Equal(20)
	})

	t.Run("no summarizer keeps the working set", func(t *testing.T) {
		m := chat.NewMemory(nil, 50, 10)
		for i := 0; i < 20; i++ {
			m.Append(userMsg(strings.Repeat("e", 40)))
		}

		m.Fold(ctx)
		gt.V(t, len(m.Recent())).Equal(20)
	})
}
