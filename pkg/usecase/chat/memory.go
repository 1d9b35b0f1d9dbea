package chat

import (
	"context"

	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/utils/logging"
	"google.golang.org/genai"
)

const (
	// DefaultTokenBudget caps the estimated token count of the working set
	DefaultTokenBudget = 1000

	// DefaultWindow is the number of recent messages shown to the model verbatim
	DefaultWindow = 10
)

// Memory is the in-process working set of one session: a rolling summary
// plus the messages not yet folded into it. The durable log in the
// repository is append-only and never rewritten by folding.
type Memory struct {
	summarizer Summarizer
	budget     int
	window     int

	summary string
	recent  []*model.Message
}

func NewMemory(summarizer Summarizer, budget, window int) *Memory {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &Memory{
		summarizer: summarizer,
		budget:     budget,
		window:     window,
	}
}

// Restore seeds the working set from the durable log, oldest first
func (m *Memory) Restore(msgs []*model.Message) {
	m.recent = append([]*model.Message{}, msgs...)
}

func (m *Memory) Append(msg *model.Message) {
	m.recent = append(m.recent, msg)
}

func (m *Memory) Summary() string {
	return m.summary
}

func (m *Memory) Recent() []*model.Message {
	return m.recent
}

// estimateTokens approximates the token count of a text. Roughly four
// characters per token holds for typical prose, and the estimate only has
// to be stable, not exact.
func estimateTokens(text string) int {
	n := len([]rune(text)) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Fold evicts the oldest working-set messages into the rolling summary when
// the estimated token total exceeds the budget. A summarizer failure is
// non-fatal: the working set stays intact and the turn proceeds.
func (m *Memory) Fold(ctx context.Context) {
	total := 0
	for _, msg := range m.recent {
		total += estimateTokens(msg.Content)
	}
	if total <= m.budget {
		return
	}

	// Evict front messages until the rest fits, always keeping the latest
	// message so the model sees what it just answered.
	evict := 0
	for total > m.budget && len(m.recent)-evict > 1 {
		total -= estimateTokens(m.recent[evict].Content)
		evict++
	}
	if evict == 0 {
		return
	}

	if m.summarizer == nil {
		logging.From(ctx).Warn("conversation over token budget but no summarizer configured",
			"messages", len(m.recent),
		)
		return
	}

	folded := m.recent[:evict]
	summary, err := m.summarizer.Summarize(ctx, m.summary, folded)
	if err != nil {
		logging.From(ctx).Warn("failed to fold conversation into summary, keeping working set",
			"error", err,
			"folded", len(folded),
		)
		return
	}

	m.summary = summary
	m.recent = append([]*model.Message{}, m.recent[evict:]...)
}

// Contents renders the working set for the model: the rolling summary first
// as a user message, then at most window recent messages verbatim
func (m *Memory) Contents() []*genai.Content {
	var contents []*genai.Content

	if m.summary != "" {
		contents = append(contents, &genai.Content{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{Text: "=== Previous Conversation Summary ===\n\n" + m.summary},
			},
		})
	}

	msgs := m.recent
	if len(msgs) > m.window {
		msgs = msgs[len(msgs)-m.window:]
	}

	for _, msg := range msgs {
		role := genai.RoleUser
		if msg.Role == model.RoleAssistant {
			role = genai.RoleModel
		}

		text := msg.Content
		if msg.ToolName != "" {
			text = "[tool " + msg.ToolName + "] " + text
		}

		contents = append(contents, genai.NewContentFromText(text, genai.Role(role)))
	}

	return contents
}
