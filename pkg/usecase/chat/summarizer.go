package chat

import (
	"context"
	_ "embed"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/adapter"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/genai"
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

// Summarizer folds old conversation turns into a rolling summary. The prior
// summary, if any, is merged so one summary always covers everything evicted
// so far.
type Summarizer interface {
	Summarize(ctx context.Context, prior string, folded []*model.Message) (string, error)
}

// renderTranscript flattens messages into a plain-text transcript for the
// summarizer prompt
func renderTranscript(prior string, folded []*model.Message) string {
	var b strings.Builder
	if prior != "" {
		b.WriteString("Previous summary:\n")
		b.WriteString(prior)
		b.WriteString("\n\n")
	}

	b.WriteString("New messages:\n")
	for _, msg := range folded {
		label := string(msg.Role)
		if msg.ToolName != "" {
			label = "tool:" + msg.ToolName
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	return b.String()
}

type geminiSummarizer struct {
	gemini adapter.Gemini
}

// NewGeminiSummarizer summarizes with the same Gemini backend used for the
// conversation itself
func NewGeminiSummarizer(gemini adapter.Gemini) Summarizer {
	return &geminiSummarizer{gemini: gemini}
}

func (s *geminiSummarizer) Summarize(ctx context.Context, prior string, folded []*model.Message) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(renderTranscript(prior, folded), genai.RoleUser),
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(summarizePromptRaw, ""),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	resp, err := s.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("no summary generated")
	}

	var summary strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			summary.WriteString(part.Text)
		}
	}

	if summary.Len() == 0 {
		return "", goerr.New("empty summary generated")
	}

	return summary.String(), nil
}

type claudeSummarizer struct {
	claude adapter.Claude
}

// NewClaudeSummarizer summarizes with Claude so summary traffic does not
// share quota with the conversation model
func NewClaudeSummarizer(claude adapter.Claude) Summarizer {
	return &claudeSummarizer{claude: claude}
}

func (s *claudeSummarizer) Summarize(ctx context.Context, prior string, folded []*model.Message) (string, error) {
	summary, err := s.claude.Generate(ctx, summarizePromptRaw, renderTranscript(prior, folded))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	if strings.TrimSpace(summary) == "" {
		return "", goerr.New("empty summary generated")
	}

	return summary, nil
}
